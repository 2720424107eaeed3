package director

import (
	"fmt"

	"github.com/shouni/go-motion-director/pkg/domain"
	"github.com/shouni/go-motion-director/pkg/prompts"
)

// variant はパイプライン種別ごとのテンプレート、エージェント名、ユーザーターンの文言です。
type variant struct {
	configMode string
	writerMode string
	editorMode string
	refineMode string

	configAgent  string
	writerPrefix string
	editorAgent  string
	refineAgent  string

	configTurn func(n int, style, orientation string) string
	writerTurn func(index, position int) string
	editorTurn string
}

const analyzerAgent = "video_analyzer"

const analyzerTurn = "Analyze this reference video. Extract camera movements, subject motion patterns, energy curve, " +
	"beat detection, color grading, and key visual elements in motion."

var variants = map[domain.PipelineType]variant{
	domain.PipelineProI2V: {
		configMode: prompts.ModeConfig,
		writerMode: prompts.ModeWriter,
		editorMode: prompts.ModeEditor,
		refineMode: prompts.ModeRefine,

		configAgent:  "config_agent",
		writerPrefix: "motion_writer",
		editorAgent:  "editor_agent",
		refineAgent:  "motion_refiner",

		configTurn: func(n int, style, _ string) string {
			return fmt.Sprintf("Analyze these %d images as a sequence. "+
				"Plan the scene sequence, recommend the optimal order for minimal editing. "+
				"Style preset: %s.", n, style)
		},
		writerTurn: func(index, position int) string {
			return fmt.Sprintf("Write a full Kling 2.6 structured prompt (visual + audio) for scene %d. "+
				"This scene is at position %d in the final sequence.", index, position)
		},
		editorTurn: "Review all motion prompts for consistency, flow, and audio continuity. " +
			"Verify or improve the scene order. Polish all prompts.",
	},
	domain.PipelineMotionControl: {
		configMode: prompts.ModeMCConfig,
		writerMode: prompts.ModeMCContextWriter,
		editorMode: prompts.ModeMCEditor,
		refineMode: prompts.ModeMCRefine,

		configAgent:  "mc_config_agent",
		writerPrefix: "mc_context_writer",
		editorAgent:  "mc_editor_agent",
		refineAgent:  "mc_motion_refiner",

		configTurn: func(n int, style, orientation string) string {
			return fmt.Sprintf("Analyze these %d character images as a sequence. "+
				"Plan which image pairs with which segment of the reference video motion. "+
				"Style preset: %s. Character orientation mode: %s.", n, style, orientation)
		},
		writerTurn: func(index, position int) string {
			return fmt.Sprintf("Write a CONTEXT-ONLY prompt for Motion Control scene %d. "+
				"This scene is at position %d in the final sequence. "+
				"DO NOT describe motion, the reference video provides that. "+
				"Only describe: scene setting, environment, background animation, lighting, style.", index, position)
		},
		editorTurn: "Review all Motion Control prompts. VALIDATE: (1) No motion description (reference video provides motion), " +
			"(2) Backgrounds are alive with specific animation, (3) Lighting consistent, " +
			"(4) Scene transitions work. Fix any issues. Polish prompts.",
	},
}

func variantFor(pt domain.PipelineType) variant {
	if v, ok := variants[pt]; ok {
		return v
	}
	return variants[domain.PipelineProI2V]
}
