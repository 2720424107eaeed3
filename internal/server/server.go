// Package server は Motion Director とプロンプトセットを HTTP で公開します。
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-motion-director/pkg/director"
	"github.com/shouni/go-motion-director/pkg/domain"
	"github.com/shouni/go-motion-director/pkg/promptset"
)

// MotionDirector はハンドラが使う Motion Director の操作です。
type MotionDirector interface {
	Generate(ctx context.Context, req director.GenerateRequest) (*director.Result, error)
	Refine(ctx context.Context, req director.RefineRequest) (*director.Result, error)
	Styles() *domain.StyleCatalog
}

// PromptSets はハンドラが使うプロンプトセットの操作です。
type PromptSets interface {
	Generate(ctx context.Context, req promptset.GenerateRequest) (*promptset.Result, error)
	Refine(ctx context.Context, req promptset.RefineRequest) (*promptset.Result, error)
}

// Handler はルーティング先のハンドラ群です。
type Handler struct {
	motion     MotionDirector
	promptSets PromptSets
}

// NewHandler は Handler を作成します。
func NewHandler(motion MotionDirector, promptSets PromptSets) *Handler {
	return &Handler{motion: motion, promptSets: promptSets}
}

// NewRouter はミドルウェアとルートを登録した gin.Engine を返します。
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), cors())

	r.GET("/health", h.health)

	motion := r.Group("/motion")
	motion.GET("/presets", h.presets)
	motion.POST("/generate", h.motionGenerate)
	motion.POST("/refine", h.motionRefine)

	r.POST("/generate", h.promptSetGenerate)
	r.POST("/refine", h.promptSetRefine)
	return r
}

// NewHTTPServer は addr で待ち受ける http.Server を返します。
func NewHTTPServer(addr string, h *Handler) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: NewRouter(h),
	}
}
