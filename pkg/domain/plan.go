package domain

// ScenePlan は Config ステージが出力するシーン計画です。
// 正規化後は len(Scenes) == N、RecommendedOrder は 0..N-1 の順列になります。
type ScenePlan struct {
	Scenes           []PlanScene `json:"scenes"`
	RecommendedOrder []int       `json:"recommended_order"`
	OrderReasoning   string      `json:"order_reasoning,omitempty"`

	// Pro-I2V のナラティブ情報
	OverallMoodArc string `json:"overall_mood_arc,omitempty"`
	PacingCurve    string `json:"pacing_curve,omitempty"`
	AudioArc       string `json:"audio_arc,omitempty"`

	// Motion Control のナラティブ情報
	OverallApproach          string `json:"overall_approach,omitempty"`
	MotionCompatibilityNotes string `json:"motion_compatibility_notes,omitempty"`
}

// PlanScene はシーンごとの演出メタデータです。両パイプラインのフィールドを併せ持ちます。
// EnergyLevel と RecommendedAudio はモデルの出力をそのまま保持します。
type PlanScene struct {
	SceneIndex       int    `json:"scene_index"`
	OriginalPosition int    `json:"original_position"`
	ShotTypeDetected string `json:"shot_type_detected,omitempty"`

	// Pro-I2V
	SubjectDescription           string `json:"subject_description,omitempty"`
	Environment                  string `json:"environment,omitempty"`
	ColorTemperature             string `json:"color_temperature,omitempty"`
	EnergyLevel                  any    `json:"energy_level,omitempty"`
	RecommendedCameraMove        string `json:"recommended_camera_move,omitempty"`
	RecommendedSubjectMotion     string `json:"recommended_subject_motion,omitempty"`
	RecommendedEnvironmentMotion string `json:"recommended_environment_motion,omitempty"`
	RecommendedAudio             any    `json:"recommended_audio,omitempty"`
	DirectionNotes               string `json:"direction_notes,omitempty"`

	// Motion Control
	ReferenceMotionSegment  string `json:"reference_motion_segment,omitempty"`
	SubjectPoseNotes        string `json:"subject_pose_notes,omitempty"`
	EnvironmentStyle        string `json:"environment_style,omitempty"`
	LightingDirection       string `json:"lighting_direction,omitempty"`
	BackgroundAnimationCues string `json:"background_animation_cues,omitempty"`

	DurationSuggestion string `json:"duration_suggestion,omitempty"`
	TransitionToNext   string `json:"transition_to_next,omitempty"`
}

// DefaultPlanScene は計画のシーン数が足りないときに補うプレースホルダーです。
func DefaultPlanScene(pt PipelineType, index int) PlanScene {
	if pt == PipelineMotionControl {
		return PlanScene{
			SceneIndex:              index,
			OriginalPosition:        index,
			ReferenceMotionSegment:  "match reference video motion",
			ShotTypeDetected:        "medium shot",
			SubjectPoseNotes:        "pose compatible with reference motion",
			EnvironmentStyle:        "complementary environment",
			LightingDirection:       "neutral",
			DurationSuggestion:      "5s",
			TransitionToNext:        "natural cut",
			BackgroundAnimationCues: "ambient background motion",
		}
	}
	return PlanScene{
		SceneIndex:                   index,
		OriginalPosition:             index,
		ShotTypeDetected:             "medium shot",
		SubjectDescription:           "subject",
		Environment:                  "ambient setting",
		ColorTemperature:             "neutral",
		EnergyLevel:                  5,
		RecommendedCameraMove:        "steady dolly forward",
		RecommendedSubjectMotion:     "subtle movement",
		RecommendedEnvironmentMotion: "ambient motion",
		RecommendedAudio: map[string]any{
			"dialogue": "none",
			"ambience": "ambient room tone",
			"sfx":      "none",
			"music":    "none",
		},
		DirectionNotes:     "Follow style preset guidelines",
		DurationSuggestion: "5s",
		TransitionToNext:   "natural cut",
	}
}

// SceneFor は scene_index が一致するシーンを探し、なければ位置で引きます。
// どちらも見つからない場合はゼロ値を返します。
func (p ScenePlan) SceneFor(index int) PlanScene {
	for _, s := range p.Scenes {
		if s.SceneIndex == index {
			return s
		}
	}
	if index >= 0 && index < len(p.Scenes) {
		return p.Scenes[index]
	}
	return PlanScene{}
}

// SequencePosition は推奨順序の中での scene_index の位置を返します。
// 順序に含まれない場合は scene_index 自身を返します。
func (p ScenePlan) SequencePosition(index int) int {
	for pos, idx := range p.RecommendedOrder {
		if idx == index {
			return pos
		}
	}
	return index
}
