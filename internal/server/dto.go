package server

import (
	"encoding/base64"
	"fmt"

	"github.com/shouni/go-motion-director/pkg/director"
	"github.com/shouni/go-motion-director/pkg/domain"
	"github.com/shouni/go-motion-director/pkg/promptset"
)

type imageInput struct {
	Base64   string `json:"base64"`
	MIMEType string `json:"mime_type"`
}

type motionGenerateRequest struct {
	APIKey                       string       `json:"api_key"`
	Images                       []imageInput `json:"images"`
	StylePreset                  string       `json:"style_preset"`
	UserNote                     string       `json:"user_note"`
	PipelineType                 string       `json:"pipeline_type"`
	GlobalReferenceVideoBase64   string       `json:"global_reference_video_base64"`
	GlobalReferenceVideoMIMEType string       `json:"global_reference_video_mime_type"`
	CharacterOrientation         string       `json:"character_orientation"`
	KeepOriginalSound            *bool        `json:"keep_original_sound"`
}

type motionRefineRequest struct {
	APIKey     string `json:"api_key"`
	SessionID  string `json:"session_id" binding:"required"`
	Message    string `json:"message" binding:"required"`
	SceneIndex *int   `json:"scene_index"`
}

type structuredPrompt struct {
	Scene            string `json:"scene"`
	Action           string `json:"action"`
	Camera           string `json:"camera"`
	AudioDialogue    string `json:"audio_dialogue"`
	AudioAmbienceSFX string `json:"audio_ambience_sfx"`
	Music            string `json:"music"`
	Avoid            string `json:"avoid"`
}

type motionPromptItem struct {
	SceneIndex         int               `json:"scene_index"`
	MotionPrompt       string            `json:"motion_prompt"`
	StructuredPrompt   *structuredPrompt `json:"structured_prompt"`
	CameraMove         string            `json:"camera_move"`
	SubjectMotion      string            `json:"subject_motion"`
	DurationSuggestion string            `json:"duration_suggestion"`
	NegativePrompt     *string           `json:"negative_prompt"`
}

type motionResponse struct {
	SessionID        string             `json:"session_id"`
	Prompts          []motionPromptItem `json:"prompts"`
	RecommendedOrder []int              `json:"recommended_order"`
	OrderReasoning   *string            `json:"order_reasoning"`
	PipelineType     string             `json:"pipeline_type"`
	VideoAnalysis    map[string]any     `json:"video_analysis"`
}

type presetItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Camera     string `json:"camera"`
	Subject    string `json:"subject"`
	Pacing     string `json:"pacing"`
	Mood       string `json:"mood"`
	AudioStyle string `json:"audio_style"`
}

type presetsResponse struct {
	Default string       `json:"default"`
	Presets []presetItem `json:"presets"`
}

type promptSetGenerateRequest struct {
	APIKey        string `json:"api_key"`
	ImageBase64   string `json:"image_base64"`
	ImageMIMEType string `json:"image_mime_type"`
	Mode          string `json:"mode"`
	Count         int    `json:"count"`
	SceneContext  string `json:"scene_context"`
}

type promptSetRefineRequest struct {
	APIKey      string `json:"api_key"`
	SessionID   string `json:"session_id" binding:"required"`
	Message     string `json:"message" binding:"required"`
	PromptIndex *int   `json:"prompt_index"`
}

type promptSetResponse struct {
	SessionID string           `json:"session_id"`
	Prompts   []promptset.Item `json:"prompts"`
}

func (r motionGenerateRequest) toDomain() (director.GenerateRequest, error) {
	req := director.GenerateRequest{
		APIKey:               r.APIKey,
		StylePreset:          r.StylePreset,
		UserNote:             r.UserNote,
		PipelineType:         r.PipelineType,
		CharacterOrientation: r.CharacterOrientation,
		KeepOriginalSound:    r.KeepOriginalSound == nil || *r.KeepOriginalSound,
	}
	for i, img := range r.Images {
		part, err := decodeMedia(img.Base64, img.MIMEType, "image/jpeg")
		if err != nil {
			return req, domain.NewInputError(fmt.Sprintf("images[%d]: %v", i, err))
		}
		req.Images = append(req.Images, part)
	}
	if r.GlobalReferenceVideoBase64 != "" {
		video, err := decodeMedia(r.GlobalReferenceVideoBase64, r.GlobalReferenceVideoMIMEType, "video/mp4")
		if err != nil {
			return req, domain.NewInputError(fmt.Sprintf("global_reference_video_base64: %v", err))
		}
		req.ReferenceVideo = &video
	}
	return req, nil
}

func (r promptSetGenerateRequest) toDomain() (promptset.GenerateRequest, error) {
	req := promptset.GenerateRequest{
		APIKey:       r.APIKey,
		Mode:         r.Mode,
		Count:        r.Count,
		SceneContext: r.SceneContext,
	}
	if r.ImageBase64 == "" {
		return req, nil
	}
	img, err := decodeMedia(r.ImageBase64, r.ImageMIMEType, "image/jpeg")
	if err != nil {
		return req, domain.NewInputError(fmt.Sprintf("image_base64: %v", err))
	}
	req.Image = img
	return req, nil
}

func decodeMedia(data, mimeType, defaultMIME string) (domain.MediaPart, error) {
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return domain.MediaPart{}, fmt.Errorf("invalid base64 data")
	}
	if mimeType == "" {
		mimeType = defaultMIME
	}
	return domain.MediaPart{Data: b, MIMEType: mimeType}, nil
}

func newMotionResponse(res *director.Result) motionResponse {
	out := motionResponse{
		SessionID:        res.SessionID,
		Prompts:          make([]motionPromptItem, 0, len(res.Prompts)),
		RecommendedOrder: res.Order,
		PipelineType:     string(res.PipelineType),
		VideoAnalysis:    res.VideoAnalysis,
	}
	if res.OrderReasoning != "" {
		reason := res.OrderReasoning
		out.OrderReasoning = &reason
	}
	for _, a := range res.Prompts {
		item := motionPromptItem{
			SceneIndex:         a.SceneIndex,
			MotionPrompt:       a.FlatPrompt(),
			CameraMove:         a.CameraMove,
			SubjectMotion:      a.SubjectMotion,
			DurationSuggestion: a.DurationSuggestion,
		}
		if item.DurationSuggestion == "" {
			item.DurationSuggestion = "5s"
		}
		if a.NegativePrompt != "" {
			neg := a.NegativePrompt
			item.NegativePrompt = &neg
		}
		if sp := a.Structured(); sp != nil {
			item.StructuredPrompt = &structuredPrompt{
				Scene:            sp.Scene,
				Action:           sp.Action,
				Camera:           sp.Camera,
				AudioDialogue:    sp.AudioDialogue,
				AudioAmbienceSFX: sp.AudioAmbienceSFX,
				Music:            sp.Music,
				Avoid:            sp.Avoid,
			}
		}
		out.Prompts = append(out.Prompts, item)
	}
	return out
}

func newPresetsResponse(c *domain.StyleCatalog) presetsResponse {
	out := presetsResponse{Default: c.Default, Presets: make([]presetItem, 0, len(c.Presets))}
	for _, p := range c.Presets {
		out.Presets = append(out.Presets, presetItem{
			ID:         p.ID,
			Name:       p.Name,
			Camera:     p.Camera,
			Subject:    p.Subject,
			Pacing:     p.Pacing,
			Mood:       p.Mood,
			AudioStyle: p.AudioStyle,
		})
	}
	return out
}
