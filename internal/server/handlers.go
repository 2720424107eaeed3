package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-motion-director/pkg/director"
	"github.com/shouni/go-motion-director/pkg/domain"
	"github.com/shouni/go-motion-director/pkg/promptset"
)

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) presets(c *gin.Context) {
	c.JSON(http.StatusOK, newPresetsResponse(h.motion.Styles()))
}

func (h *Handler) motionGenerate(c *gin.Context) {
	var body motionGenerateRequest
	if !bindJSON(c, &body) {
		return
	}
	req, err := body.toDomain()
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.motion.Generate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMotionResponse(res))
}

func (h *Handler) motionRefine(c *gin.Context) {
	var body motionRefineRequest
	if !bindJSON(c, &body) {
		return
	}
	res, err := h.motion.Refine(c.Request.Context(), director.RefineRequest{
		SessionID:  body.SessionID,
		Message:    body.Message,
		SceneIndex: body.SceneIndex,
		APIKey:     body.APIKey,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMotionResponse(res))
}

func (h *Handler) promptSetGenerate(c *gin.Context) {
	var body promptSetGenerateRequest
	if !bindJSON(c, &body) {
		return
	}
	req, err := body.toDomain()
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.promptSets.Generate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, promptSetResponse{SessionID: res.SessionID, Prompts: res.Prompts})
}

func (h *Handler) promptSetRefine(c *gin.Context) {
	var body promptSetRefineRequest
	if !bindJSON(c, &body) {
		return
	}
	res, err := h.promptSets.Refine(c.Request.Context(), promptset.RefineRequest{
		SessionID:   body.SessionID,
		Message:     body.Message,
		PromptIndex: body.PromptIndex,
		APIKey:      body.APIKey,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, promptSetResponse{SessionID: res.SessionID, Prompts: res.Prompts})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// writeError はエラー種別を HTTP ステータスに変換して応答します。
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var inputErr *domain.InputError
	switch {
	case errors.As(err, &inputErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": inputErr.Msg})
	case errors.Is(err, domain.ErrSessionNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "Motion session not found or expired"})
	case errors.Is(err, promptset.ErrSessionNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "Session not found or expired"})
	default:
		slog.Error("Request processing failed", "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
	}
}
