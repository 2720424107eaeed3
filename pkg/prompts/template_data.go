package prompts

import (
	_ "embed"

	"github.com/shouni/go-motion-director/pkg/domain"
)

const (
	// Pro-I2V パイプライン
	ModeConfig = "config"
	ModeWriter = "writer"
	ModeEditor = "editor"
	ModeRefine = "refine"

	// Motion Control パイプライン
	ModeVideoAnalyzer   = "video_analyzer"
	ModeMCConfig        = "mc_config"
	ModeMCContextWriter = "mc_context_writer"
	ModeMCEditor        = "mc_editor"
	ModeMCRefine        = "mc_refine"

	// 単発のプロンプトセット
	ModePhotoset     = "photoset"
	ModeStoryboard   = "storyboard"
	ModePromptRefine = "prompt_refine"
)

// TemplateData はプロンプトテンプレートに渡すデータ構造です。
// JSON を埋め込むフィールドは整形済みの文字列で渡します。
type TemplateData struct {
	Style    domain.StylePreset
	UserNote string

	VideoAnalysis    string
	PipelineState    string
	Prompts          string
	RecommendedOrder string
	RefineScope      string

	Scene SceneDirection

	Count        int
	SceneContext string
	ShotTypes    []string
	CameraAngles []string
}

// SceneDirection は Writer に渡す 1 シーン分の演出指示です。
type SceneDirection struct {
	Index            int
	SequencePosition int

	CameraMove        string
	SubjectMotion     string
	EnvironmentMotion string
	Audio             string
	Notes             string
	EnergyLevel       string

	ReferenceMotionSegment string
	EnvironmentStyle       string
	BackgroundAnimation    string

	Duration   string
	Transition string
}

// ShotTypes はプロンプトセットで使えるショットの種類です。
var ShotTypes = []string{
	"Extreme Close-up", "Close-up", "Medium Close-up", "Medium Shot",
	"Cowboy Shot", "Medium Wide Shot", "Full Shot", "Wide Shot",
	"Extreme Wide Shot", "Over-the-Shoulder", "Two Shot", "Insert Shot",
	"Cutaway", "POV Shot", "Bird's Eye View", "Worm's Eye View",
	"Silhouette Shot", "Through-Frame Shot", "Reflection Shot",
	"Detail Shot",
}

// CameraAngles はプロンプトセットで使えるカメラアングルです。
var CameraAngles = []string{
	"Eye Level", "Low Angle 15°", "Low Angle 30°", "Low Angle 45°",
	"High Angle 15°", "High Angle 30°", "High Angle 45°",
	"Overhead / Top-Down", "Dutch Angle 15°", "Dutch Angle 30°",
	"Dutch Angle 45°", "Side Profile", "Three-Quarter Left",
	"Three-Quarter Right", "Front-Facing", "Rear View",
	"Over-the-Shoulder Left", "Over-the-Shoulder Right",
	"Worm's Eye View", "Canted Frame",
}

var (
	//go:embed style_block.md
	sharedBlocks string

	//go:embed config.md
	ConfigPrompt string
	//go:embed writer.md
	WriterPrompt string
	//go:embed editor.md
	EditorPrompt string
	//go:embed refine.md
	RefinePrompt string

	//go:embed video_analyzer.md
	VideoAnalyzerPrompt string
	//go:embed mc_config.md
	MCConfigPrompt string
	//go:embed mc_context_writer.md
	MCContextWriterPrompt string
	//go:embed mc_editor.md
	MCEditorPrompt string
	//go:embed mc_refine.md
	MCRefinePrompt string

	//go:embed photoset.md
	PhotosetPrompt string
	//go:embed storyboard.md
	StoryboardPrompt string
	//go:embed prompt_refine.md
	PromptRefinePrompt string
)

// allTemplates はモードとテンプレート文字列を紐づけるマップです。
var allTemplates = map[string]string{
	ModeConfig:          ConfigPrompt,
	ModeWriter:          WriterPrompt,
	ModeEditor:          EditorPrompt,
	ModeRefine:          RefinePrompt,
	ModeVideoAnalyzer:   VideoAnalyzerPrompt,
	ModeMCConfig:        MCConfigPrompt,
	ModeMCContextWriter: MCContextWriterPrompt,
	ModeMCEditor:        MCEditorPrompt,
	ModeMCRefine:        MCRefinePrompt,
	ModePhotoset:        PhotosetPrompt,
	ModeStoryboard:      StoryboardPrompt,
	ModePromptRefine:    PromptRefinePrompt,
}
