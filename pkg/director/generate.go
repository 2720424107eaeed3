package director

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-motion-director/pkg/domain"
)

// run は 1 回のパイプライン実行の入力です。
type run struct {
	req     GenerateRequest
	pt      domain.PipelineType
	styleID string
	style   domain.StylePreset
	v       variant
	logger  *slog.Logger
}

// Generate は入力を検証し、pipeline_type に応じたパイプラインを実行します。
// 成功するとセッションを保存し、その ID を Result に含めます。
func (d *Director) Generate(ctx context.Context, req GenerateRequest) (*Result, error) {
	d.sweep()

	r, err := d.validate(req)
	if err != nil {
		return nil, err
	}
	return d.execute(ctx, r)
}

// validate はステージを 1 つも実行する前に入力を検査します。
func (d *Director) validate(req GenerateRequest) (*run, error) {
	if len(req.Images) == 0 {
		return nil, domain.NewInputError("At least one image is required")
	}
	if len(req.Images) > domain.MaxScenes {
		return nil, domain.NewInputError(fmt.Sprintf("Maximum %d images allowed", domain.MaxScenes))
	}

	styleID := req.StylePreset
	if styleID == "" {
		styleID = d.styles.Default
	}
	if err := d.styles.Validate(styleID); err != nil {
		return nil, err
	}

	pt, err := domain.ParsePipelineType(req.PipelineType)
	if err != nil {
		return nil, err
	}
	if pt == domain.PipelineMotionControl {
		if req.ReferenceVideo == nil || len(req.ReferenceVideo.Data) == 0 {
			return nil, domain.NewInputError("Motion Control requires global_reference_video_base64")
		}
		if !domain.Orientation(req.CharacterOrientation).Valid() {
			return nil, domain.NewInputError("Motion Control requires character_orientation ('image' or 'video')")
		}
	}

	style, _ := d.styles.Lookup(styleID)
	return &run{
		req:     req,
		pt:      pt,
		styleID: styleID,
		style:   style,
		v:       variantFor(pt),
		logger:  slog.With("pipeline", string(pt), "style", styleID, "scenes", len(req.Images)),
	}, nil
}

// execute は VideoAnalyzer（Motion Control のみ）、Config、Writers、Editor の順にステージを実行します。
func (d *Director) execute(ctx context.Context, r *run) (*Result, error) {
	startTime := time.Now()
	r.logger.Info("Pipeline started", "user_note", r.req.UserNote != "")

	var videoAnalysis map[string]any
	if r.pt == domain.PipelineMotionControl {
		var err error
		videoAnalysis, err = d.analyzeVideo(ctx, r)
		if err != nil {
			return nil, err
		}
	}

	plan, err := d.planScenes(ctx, r, videoAnalysis)
	if err != nil {
		return nil, err
	}
	state := domain.NewPipelineState(r.pt, r.styleID, r.style, plan, videoAnalysis)

	artifacts, err := d.writeScenes(ctx, r, state)
	if err != nil {
		return nil, err
	}
	state.SetArtifacts(artifacts)

	rev, err := d.review(ctx, r, state)
	if err != nil {
		return nil, err
	}
	state.EditorNotes = rev.notes

	sessionID := d.newID()
	entry := domain.SessionEntry{
		ID:           sessionID,
		PipelineType: r.pt,
		StylePreset:  r.styleID,
		APIKey:       r.req.APIKey,
		Prompts:      rev.artifacts,
		ScenePlan:    plan,
		State:        state,
		FinalOrder:   rev.order,
	}
	if r.pt == domain.PipelineMotionControl {
		entry.VideoAnalysis = videoAnalysis
		entry.CharacterOrientation = domain.Orientation(r.req.CharacterOrientation)
		entry.KeepOriginalSound = r.req.KeepOriginalSound
	}
	d.store.Put(sessionID, entry)

	r.logger.Info("Pipeline completed",
		"session_id", sessionID,
		"order", rev.order,
		"duration", time.Since(startTime).Round(time.Millisecond))

	return &Result{
		SessionID:      sessionID,
		PipelineType:   r.pt,
		Prompts:        rev.artifacts,
		Order:          rev.order,
		OrderReasoning: rev.reasoning,
		VideoAnalysis:  entry.VideoAnalysis,
	}, nil
}
