package domain

import "strings"

// SceneArtifact は SceneWriter が出力するシーン単位の成果物です。
// Pro-I2V は StructuredPrompt / MotionPrompt を、Motion Control は ContextPrompt / MotionContextPrompt を使います。
type SceneArtifact struct {
	SceneIndex int `json:"scene_index"`

	StructuredPrompt *StructuredPrompt `json:"structured_prompt,omitempty"`
	MotionPrompt     string            `json:"motion_prompt,omitempty"`
	CameraMove       string            `json:"camera_move,omitempty"`
	SubjectMotion    string            `json:"subject_motion,omitempty"`

	ContextPrompt       *ContextPrompt `json:"context_prompt,omitempty"`
	MotionContextPrompt string         `json:"motion_context_prompt,omitempty"`

	DurationSuggestion string `json:"duration_suggestion,omitempty"`
	NegativePrompt     string `json:"negative_prompt,omitempty"`
}

// StructuredPrompt は映像と音声のレイヤーに分けたプロンプトです。
type StructuredPrompt struct {
	Scene            string `json:"scene"`
	Action           string `json:"action"`
	Camera           string `json:"camera"`
	AudioDialogue    string `json:"audio_dialogue"`
	AudioAmbienceSFX string `json:"audio_ambience_sfx"`
	Music            string `json:"music"`
	Avoid            string `json:"avoid"`
}

// ContextPrompt はモーション記述を含まない Motion Control 用のプロンプトです。
type ContextPrompt struct {
	Scene                 string `json:"scene"`
	EnvironmentBackground string `json:"environment_background"`
	StyleModifiers        string `json:"style_modifiers"`
	AudioAmbience         string `json:"audio_ambience"`
	AudioSFX              string `json:"audio_sfx"`
	MusicSuggestion       string `json:"music_suggestion"`
}

// FallbackArtifact は Writer が失敗したシーンに差し込む固定の成果物です。
// スタイルに依存せず、常に同じ内容を返します。
func FallbackArtifact(pt PipelineType, index int) SceneArtifact {
	if pt == PipelineMotionControl {
		return SceneArtifact{
			SceneIndex: index,
			ContextPrompt: &ContextPrompt{
				Scene:                 "Ambient setting, natural lighting",
				EnvironmentBackground: "subtle background motion",
				StyleModifiers:        "cinematic, professional",
				AudioAmbience:         "quiet room tone",
				AudioSFX:              "none",
				MusicSuggestion:       "None",
			},
			MotionContextPrompt: "Ambient setting with subtle background motion, cinematic lighting",
			DurationSuggestion:  "5s",
			NegativePrompt:      "sudden movements, flickering",
		}
	}
	return SceneArtifact{
		SceneIndex: index,
		StructuredPrompt: &StructuredPrompt{
			Scene:            "Ambient setting, natural lighting",
			Action:           "Subtle ambient movement",
			Camera:           "++steady dolly forward++",
			AudioDialogue:    "No dialogue",
			AudioAmbienceSFX: "Quiet room tone",
			Music:            "None",
			Avoid:            "sudden movements, flickering",
		},
		MotionPrompt:       "++steady dolly forward++, subtle ambient movement, consistent lighting",
		CameraMove:         "steady dolly forward",
		SubjectMotion:      "subtle movement",
		DurationSuggestion: "5s",
		NegativePrompt:     "sudden movements, flickering",
	}
}

// FlatPrompt は API 送信用の 1 行プロンプトを返します。
func (a SceneArtifact) FlatPrompt() string {
	if a.MotionPrompt != "" {
		return a.MotionPrompt
	}
	return a.MotionContextPrompt
}

// Structured は応答用の構造化プロンプトを返します。
// Motion Control の ContextPrompt は StructuredPrompt の形に写像します。
func (a SceneArtifact) Structured() *StructuredPrompt {
	switch {
	case a.StructuredPrompt != nil:
		sp := *a.StructuredPrompt
		if sp.AudioDialogue == "" {
			sp.AudioDialogue = "No dialogue"
		}
		if sp.Music == "" {
			sp.Music = "None"
		}
		return &sp
	case a.ContextPrompt != nil:
		cp := a.ContextPrompt
		music := cp.MusicSuggestion
		if music == "" {
			music = "None"
		}
		return &StructuredPrompt{
			Scene:            cp.Scene,
			AudioDialogue:    "No dialogue",
			AudioAmbienceSFX: joinNonEmpty(", ", cp.AudioAmbience, cp.AudioSFX),
			Music:            music,
			Avoid:            a.NegativePrompt,
		}
	default:
		return nil
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
