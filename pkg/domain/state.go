package domain

import (
	"encoding/json"
	"fmt"
)

// PipelineState は 1 回のパイプライン実行で各ステージに引き継がれる共有コンテキストです。
// 書き込むのはオーケストレーターだけで、ファンアウト中は読み取り専用として扱います。
type PipelineState struct {
	PipelineType  PipelineType   `json:"pipeline_type"`
	VideoAnalysis map[string]any `json:"video_analysis,omitempty"`
	StylePreset   string         `json:"style_preset"`
	StyleDetails  StylePreset    `json:"style_details"`
	ScenePlan     ScenePlan      `json:"scene_plan"`

	RecommendedOrder []int  `json:"recommended_order"`
	OrderReasoning   string `json:"order_reasoning"`
	OverallMoodArc   string `json:"overall_mood_arc,omitempty"`
	PacingCurve      string `json:"pacing_curve,omitempty"`
	AudioArc         string `json:"audio_arc,omitempty"`

	MotionPrompts  []SceneArtifact `json:"motion_prompts,omitempty"`
	ContextPrompts []SceneArtifact `json:"context_prompts,omitempty"`
	EditorNotes    string          `json:"editor_notes,omitempty"`
}

// NewPipelineState は正規化済みの計画から初期状態を組み立てます。
func NewPipelineState(pt PipelineType, styleID string, style StylePreset, plan ScenePlan, videoAnalysis map[string]any) *PipelineState {
	st := &PipelineState{
		PipelineType:     pt,
		StylePreset:      styleID,
		StyleDetails:     style,
		ScenePlan:        plan,
		RecommendedOrder: append([]int(nil), plan.RecommendedOrder...),
		OrderReasoning:   plan.OrderReasoning,
	}
	if pt == PipelineMotionControl {
		st.VideoAnalysis = videoAnalysis
	} else {
		st.OverallMoodArc = plan.OverallMoodArc
		st.PacingCurve = plan.PacingCurve
		st.AudioArc = plan.AudioArc
	}
	return st
}

// SetArtifacts は Writer ステージの結果を種別に応じたフィールドへ格納します。
func (s *PipelineState) SetArtifacts(artifacts []SceneArtifact) {
	cp := append([]SceneArtifact(nil), artifacts...)
	if s.PipelineType == PipelineMotionControl {
		s.ContextPrompts = cp
		return
	}
	s.MotionPrompts = cp
}

// Artifacts は Writer ステージの結果を返します。
func (s *PipelineState) Artifacts() []SceneArtifact {
	if s.PipelineType == PipelineMotionControl {
		return s.ContextPrompts
	}
	return s.MotionPrompts
}

// Clone はファンアウト先へ渡すためのスナップショットを返します。
func (s *PipelineState) Clone() *PipelineState {
	cp := *s
	cp.RecommendedOrder = append([]int(nil), s.RecommendedOrder...)
	cp.MotionPrompts = append([]SceneArtifact(nil), s.MotionPrompts...)
	cp.ContextPrompts = append([]SceneArtifact(nil), s.ContextPrompts...)
	cp.ScenePlan.Scenes = append([]PlanScene(nil), s.ScenePlan.Scenes...)
	cp.ScenePlan.RecommendedOrder = append([]int(nil), s.ScenePlan.RecommendedOrder...)
	return &cp
}

// JSON はエージェントの指示文に埋め込むためのインデント付き JSON を返します。
func (s *PipelineState) JSON() (string, error) {
	return IndentJSON(s)
}

// IndentJSON は v を 2 スペースインデントの JSON 文字列に変換します。
func IndentJSON(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("JSON への変換に失敗しました: %w", err)
	}
	return string(b), nil
}
