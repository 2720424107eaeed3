package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFallbackArtifact(t *testing.T) {
	t.Run("同じ index なら常に同じ内容", func(t *testing.T) {
		a, _ := json.Marshal(FallbackArtifact(PipelineProI2V, 2))
		b, _ := json.Marshal(FallbackArtifact(PipelineProI2V, 2))
		if string(a) != string(b) {
			t.Errorf("決定的ではありません: %s / %s", a, b)
		}
	})

	t.Run("ポインタは呼び出しごとに独立している", func(t *testing.T) {
		a := FallbackArtifact(PipelineProI2V, 0)
		a.StructuredPrompt.Scene = "changed"
		if FallbackArtifact(PipelineProI2V, 0).StructuredPrompt.Scene != "Ambient setting, natural lighting" {
			t.Error("フォールバック定数が書き換えられました")
		}
	})

	t.Run("Motion Control はモーションを記述しない", func(t *testing.T) {
		mc := FallbackArtifact(PipelineMotionControl, 4)
		if mc.SceneIndex != 4 || mc.ContextPrompt == nil || mc.StructuredPrompt != nil {
			t.Fatalf("形が違います: %+v", mc)
		}
		if mc.CameraMove != "" || mc.SubjectMotion != "" {
			t.Errorf("モーションラベルは空であるべきです: %+v", mc)
		}
	})
}

func TestSceneArtifact_Structured(t *testing.T) {
	t.Run("Pro-I2V は既定値を補う", func(t *testing.T) {
		a := SceneArtifact{StructuredPrompt: &StructuredPrompt{Scene: "rooftop"}}
		sp := a.Structured()
		if sp.AudioDialogue != "No dialogue" || sp.Music != "None" {
			t.Errorf("既定値が補われていません: %+v", sp)
		}
		if a.StructuredPrompt.Music != "" {
			t.Error("元の成果物を書き換えてはいけません")
		}
	})

	t.Run("Motion Control の ContextPrompt を写像する", func(t *testing.T) {
		a := FallbackArtifact(PipelineMotionControl, 0)
		sp := a.Structured()
		if sp.Scene != "Ambient setting, natural lighting" {
			t.Errorf("scene: %q", sp.Scene)
		}
		if sp.Action != "" || sp.Camera != "" {
			t.Errorf("action/camera は空のはずです: %+v", sp)
		}
		if sp.AudioAmbienceSFX != "quiet room tone, none" {
			t.Errorf("audio_ambience_sfx: %q", sp.AudioAmbienceSFX)
		}
		if sp.Avoid != "sudden movements, flickering" {
			t.Errorf("avoid: %q", sp.Avoid)
		}
		if !strings.Contains(a.FlatPrompt(), "subtle background motion") {
			t.Errorf("FlatPrompt は motion_context_prompt を返すべきです: %q", a.FlatPrompt())
		}
	})

	t.Run("どちらもなければ nil", func(t *testing.T) {
		if (SceneArtifact{}).Structured() != nil {
			t.Error("nil を期待しました")
		}
	})
}

func TestPipelineState(t *testing.T) {
	plan := ScenePlan{
		Scenes:           []PlanScene{DefaultPlanScene(PipelineProI2V, 0)},
		RecommendedOrder: []int{0},
		OrderReasoning:   "only one",
		OverallMoodArc:   "calm",
	}
	style := DefaultStyleCatalog().Resolve("editorial")

	t.Run("Pro-I2V は motion_prompts に格納する", func(t *testing.T) {
		st := NewPipelineState(PipelineProI2V, "editorial", style, plan, nil)
		st.SetArtifacts([]SceneArtifact{FallbackArtifact(PipelineProI2V, 0)})

		out, err := st.JSON()
		if err != nil {
			t.Fatalf("JSON 変換失敗: %v", err)
		}
		for _, key := range []string{`"motion_prompts"`, `"overall_mood_arc": "calm"`, `"style_preset": "editorial"`} {
			if !strings.Contains(out, key) {
				t.Errorf("%s が含まれていません:\n%s", key, out)
			}
		}
		if strings.Contains(out, `"context_prompts"`) || strings.Contains(out, `"video_analysis"`) {
			t.Errorf("Motion Control のフィールドが含まれています:\n%s", out)
		}
	})

	t.Run("Motion Control は context_prompts と video_analysis を持つ", func(t *testing.T) {
		st := NewPipelineState(PipelineMotionControl, "editorial", style, plan, map[string]any{"shot_type": "wide"})
		st.SetArtifacts([]SceneArtifact{FallbackArtifact(PipelineMotionControl, 0)})
		if len(st.Artifacts()) != 1 || st.MotionPrompts != nil {
			t.Errorf("格納先が違います: %+v", st)
		}
		if st.OverallMoodArc != "" {
			t.Errorf("Pro-I2V のナラティブは含めません: %q", st.OverallMoodArc)
		}
	})

	t.Run("Clone は元の状態と独立している", func(t *testing.T) {
		st := NewPipelineState(PipelineProI2V, "editorial", style, plan, nil)
		cp := st.Clone()
		cp.RecommendedOrder[0] = 9
		if st.RecommendedOrder[0] != 0 {
			t.Error("Clone が元の順序を共有しています")
		}
	})
}
