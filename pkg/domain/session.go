package domain

// SessionEntry は refine で参照するための直近のパイプライン出力です。
// 最終アクセス時刻はセッションストアが管理します。
type SessionEntry struct {
	ID           string
	PipelineType PipelineType
	StylePreset  string
	APIKey       string

	Prompts    []SceneArtifact
	ScenePlan  ScenePlan
	State      *PipelineState
	FinalOrder []int

	// Motion Control のみ
	VideoAnalysis        map[string]any
	CharacterOrientation Orientation
	KeepOriginalSound    bool
}
