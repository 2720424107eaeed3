package director

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-motion-director/pkg/agent"
	"github.com/shouni/go-motion-director/pkg/domain"
	"github.com/shouni/go-motion-director/pkg/prompts"
)

// ErrRefineInvalidFormat は refine の応答から成果物の一覧を得られなかったことを示します。
var ErrRefineInvalidFormat = errors.New("refine agent returned invalid format")

// Refine はセッションの成果物をユーザーのフィードバックで書き換えます。
// 応答を解釈できない場合は失敗とし、セッションは変更しません。
func (d *Director) Refine(ctx context.Context, req RefineRequest) (*Result, error) {
	d.sweep()

	entry, ok := d.store.Get(req.SessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	n := len(entry.Prompts)
	if req.SceneIndex != nil && (*req.SceneIndex < 0 || *req.SceneIndex >= n) {
		return nil, domain.NewInputError(fmt.Sprintf("scene_index must be between 0 and %d", n-1))
	}

	v := variantFor(entry.PipelineType)
	logger := slog.With("pipeline", string(entry.PipelineType), "session_id", req.SessionID, "stage", v.refineAgent)
	startTime := time.Now()

	state := entry.State
	if state == nil {
		state = domain.NewPipelineState(entry.PipelineType, entry.StylePreset, d.styles.Resolve(entry.StylePreset), entry.ScenePlan, entry.VideoAnalysis)
		state.SetArtifacts(entry.Prompts)
	}
	stateJSON, err := state.JSON()
	if err != nil {
		return nil, err
	}
	promptsJSON, err := domain.IndentJSON(entry.Prompts)
	if err != nil {
		return nil, err
	}
	instruction, err := d.prompts.Build(v.refineMode, prompts.TemplateData{
		Prompts:       promptsJSON,
		PipelineState: stateJSON,
		RefineScope:   refineScope(req.SceneIndex),
	})
	if err != nil {
		return nil, err
	}

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = entry.APIKey
	}
	text, err := d.invoker.Invoke(ctx, agent.Request{
		Name:        v.refineAgent,
		Instruction: instruction,
		Parts:       []agent.Part{agent.TextPart(req.Message)},
		APIKey:      apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("refine に失敗しました: %w", err)
	}

	raw, err := d.extractor.Extract(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefineInvalidFormat, err)
	}
	rev, err := parseRevision(raw, n)
	if err == nil {
		err = rev.artifactsErr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefineInvalidFormat, err)
	}

	order := entry.FinalOrder
	if rev.orderChanged && rev.order != nil {
		order = rev.order
		logger.Info("Refine changed order", "order", order)
	}

	next := state.Clone()
	next.SetArtifacts(rev.artifacts)

	entry.Prompts = rev.artifacts
	entry.FinalOrder = order
	entry.State = next
	d.store.Put(req.SessionID, entry)

	logger.Info("Refine completed", "scoped", req.SceneIndex != nil, "duration", time.Since(startTime).Round(time.Millisecond))

	res := &Result{
		SessionID:    req.SessionID,
		PipelineType: entry.PipelineType,
		Prompts:      rev.artifacts,
		Order:        order,
	}
	if entry.PipelineType == domain.PipelineMotionControl {
		res.VideoAnalysis = entry.VideoAnalysis
	}
	return res, nil
}

func refineScope(sceneIndex *int) string {
	if sceneIndex != nil {
		return fmt.Sprintf("The user wants to modify ONLY scene %d. Keep all other prompts exactly the same.", *sceneIndex)
	}
	return "Apply the user's feedback to whichever prompts are relevant."
}
