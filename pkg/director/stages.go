package director

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shouni/go-motion-director/pkg/agent"
	"github.com/shouni/go-motion-director/pkg/domain"
	"github.com/shouni/go-motion-director/pkg/planner"
	"github.com/shouni/go-motion-director/pkg/prompts"
	"github.com/shouni/go-motion-director/pkg/scheduler"
)

// analyzeVideo は参照動画からモーション情報を抽出します。JSON オブジェクトが得られなければ失敗です。
func (d *Director) analyzeVideo(ctx context.Context, r *run) (map[string]any, error) {
	logger := r.logger.With("stage", analyzerAgent)
	startTime := time.Now()

	instruction, err := d.prompts.Build(prompts.ModeVideoAnalyzer, prompts.TemplateData{})
	if err != nil {
		return nil, err
	}
	text, err := d.invoker.Invoke(ctx, agent.Request{
		Name:        analyzerAgent,
		Instruction: instruction,
		Parts:       []agent.Part{agent.MediaPart(*r.req.ReferenceVideo), agent.TextPart(analyzerTurn)},
		APIKey:      r.req.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("動画解析ステージに失敗しました: %w", err)
	}

	analysis, err := d.extractor.Object(text)
	if err != nil {
		return nil, fmt.Errorf("%s: 動画解析の応答を解析できませんでした: %w", analyzerAgent, err)
	}

	logger.Info("Stage completed", "duration", time.Since(startTime).Round(time.Millisecond), "keys", len(analysis))
	return analysis, nil
}

// planScenes は全画像を Config エージェントに渡し、正規化済みのシーン計画を返します。
func (d *Director) planScenes(ctx context.Context, r *run, videoAnalysis map[string]any) (domain.ScenePlan, error) {
	logger := r.logger.With("stage", r.v.configAgent)
	startTime := time.Now()

	data := prompts.TemplateData{Style: r.style, UserNote: r.req.UserNote}
	if r.pt == domain.PipelineMotionControl {
		va, err := domain.IndentJSON(videoAnalysis)
		if err != nil {
			return domain.ScenePlan{}, err
		}
		data.VideoAnalysis = va
	}
	instruction, err := d.prompts.Build(r.v.configMode, data)
	if err != nil {
		return domain.ScenePlan{}, err
	}

	n := len(r.req.Images)
	parts := make([]agent.Part, 0, n+1)
	for _, img := range r.req.Images {
		parts = append(parts, agent.MediaPart(img))
	}
	parts = append(parts, agent.TextPart(r.v.configTurn(n, r.styleID, r.req.CharacterOrientation)))

	text, err := d.invoker.Invoke(ctx, agent.Request{
		Name:        r.v.configAgent,
		Instruction: instruction,
		Parts:       parts,
		APIKey:      r.req.APIKey,
	})
	if err != nil {
		return domain.ScenePlan{}, fmt.Errorf("Config ステージに失敗しました: %w", err)
	}

	raw, err := d.extractor.Extract(text)
	if err != nil {
		return domain.ScenePlan{}, fmt.Errorf("%s: %w", r.v.configAgent, err)
	}
	plan, err := planner.Normalize(raw, n, r.pt)
	if err != nil {
		return domain.ScenePlan{}, fmt.Errorf("%s: %w", r.v.configAgent, err)
	}

	logger.Info("Stage completed",
		"duration", time.Since(startTime).Round(time.Millisecond),
		"recommended_order", plan.RecommendedOrder)
	return plan, nil
}

// writeScenes はシーンごとに Writer を並列実行します。失敗したシーンは固定の成果物で置き換えます。
// 呼び出し元の切断で実行中の Writer を取り消さないよう、キャンセルを切り離したコンテキストで実行します。
func (d *Director) writeScenes(ctx context.Context, r *run, state *domain.PipelineState) ([]domain.SceneArtifact, error) {
	stateJSON, err := state.JSON()
	if err != nil {
		return nil, err
	}
	plan := state.ScenePlan

	opts := d.fanout
	opts.Logger = r.logger.With("stage", r.v.writerPrefix)

	task := func(ctx context.Context, idx int) (domain.SceneArtifact, error) {
		name := fmt.Sprintf("%s_%d", r.v.writerPrefix, idx)
		logger := opts.Logger.With("scene_index", idx)
		startTime := time.Now()

		pos := plan.SequencePosition(idx)
		instruction, err := d.prompts.Build(r.v.writerMode, prompts.TemplateData{
			PipelineState: stateJSON,
			Scene:         sceneDirection(r.pt, plan.SceneFor(idx), idx, pos),
		})
		if err != nil {
			return domain.SceneArtifact{}, err
		}

		text, err := d.invoker.Invoke(ctx, agent.Request{
			Name:        name,
			Instruction: instruction,
			Parts:       []agent.Part{agent.MediaPart(r.req.Images[idx]), agent.TextPart(r.v.writerTurn(idx, pos))},
			APIKey:      r.req.APIKey,
		})
		if err != nil {
			logger.Warn("Writer failed, using fallback", "error", err)
			return domain.SceneArtifact{}, err
		}

		obj, err := d.extractor.Object(text)
		if err != nil {
			logger.Warn("Writer response unparsable, using fallback", "error", err)
			return domain.SceneArtifact{}, err
		}
		// 割り当てた index を正とする
		delete(obj, "scene_index")
		artifact, err := decodeArtifact(obj)
		if err != nil {
			logger.Warn("Writer response has unexpected shape, using fallback", "error", err)
			return domain.SceneArtifact{}, err
		}
		artifact.SceneIndex = idx

		logger.Info("Writer completed", "duration", time.Since(startTime).Round(time.Millisecond))
		return artifact, nil
	}

	fallback := func(idx int) domain.SceneArtifact {
		return domain.FallbackArtifact(r.pt, idx)
	}

	artifacts, _ := scheduler.FanOut(context.WithoutCancel(ctx), opts, len(r.req.Images), task, fallback)
	return artifacts, nil
}

// reviewOutcome は Editor ステージの結果です。
type reviewOutcome struct {
	artifacts []domain.SceneArtifact
	order     []int
	reasoning string
	notes     string
}

// review は全成果物を Editor に渡します。呼び出しの失敗は致命的ですが、
// 応答が解析できない場合はレビュー前の成果物と計画の順序をそのまま使います。
func (d *Director) review(ctx context.Context, r *run, state *domain.PipelineState) (reviewOutcome, error) {
	logger := r.logger.With("stage", r.v.editorAgent)
	startTime := time.Now()

	artifacts := state.Artifacts()
	out := reviewOutcome{
		artifacts: artifacts,
		order:     append([]int(nil), state.RecommendedOrder...),
		reasoning: state.OrderReasoning,
	}

	data, err := d.reviewData(r, state)
	if err != nil {
		return reviewOutcome{}, err
	}
	instruction, err := d.prompts.Build(r.v.editorMode, data)
	if err != nil {
		return reviewOutcome{}, err
	}

	text, err := d.invoker.Invoke(ctx, agent.Request{
		Name:        r.v.editorAgent,
		Instruction: instruction,
		Parts:       []agent.Part{agent.TextPart(r.v.editorTurn)},
		APIKey:      r.req.APIKey,
	})
	if err != nil {
		return reviewOutcome{}, fmt.Errorf("Editor ステージに失敗しました: %w", err)
	}

	raw, err := d.extractor.Extract(text)
	if err != nil {
		logger.Warn("Editor response unparsable, keeping writer output", "error", err)
		return out, nil
	}
	rev, err := parseRevision(raw, len(artifacts))
	if err != nil {
		logger.Warn("Editor response rejected, keeping writer output", "error", err)
		return out, nil
	}

	if rev.artifactsErr != nil {
		logger.Warn("Editor prompts rejected, keeping writer output", "error", rev.artifactsErr)
	} else {
		out.artifacts = rev.artifacts
	}
	out.notes = rev.notes
	switch {
	case rev.order != nil && rev.orderChanged:
		out.order = rev.order
		if rev.reason != "" {
			out.reasoning = rev.reason
		}
		logger.Info("Editor changed order", "order", rev.order, "reason", out.reasoning)
	case rev.order != nil:
		out.order = rev.order
		logger.Info("Editor confirmed order", "order", rev.order)
	}

	logger.Info("Stage completed", "duration", time.Since(startTime).Round(time.Millisecond))
	return out, nil
}

func (d *Director) reviewData(r *run, state *domain.PipelineState) (prompts.TemplateData, error) {
	stateJSON, err := state.JSON()
	if err != nil {
		return prompts.TemplateData{}, err
	}
	artifactsJSON, err := domain.IndentJSON(state.Artifacts())
	if err != nil {
		return prompts.TemplateData{}, err
	}
	order, err := json.Marshal(state.RecommendedOrder)
	if err != nil {
		return prompts.TemplateData{}, err
	}

	data := prompts.TemplateData{
		Style:            r.style,
		PipelineState:    stateJSON,
		Prompts:          artifactsJSON,
		RecommendedOrder: string(order),
	}
	if r.pt == domain.PipelineMotionControl {
		va, err := domain.IndentJSON(state.VideoAnalysis)
		if err != nil {
			return prompts.TemplateData{}, err
		}
		data.VideoAnalysis = va
	}
	return data, nil
}
