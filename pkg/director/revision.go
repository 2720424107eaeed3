package director

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shouni/go-motion-director/pkg/domain"
	"github.com/shouni/go-motion-director/pkg/planner"
	"github.com/shouni/go-motion-director/pkg/prompts"
)

var (
	errNoPrompts       = errors.New("response has neither a prompts list nor a bare array")
	errArtifactCount   = errors.New("artifact count does not match scene count")
	errArtifactIndices = errors.New("artifact scene_index values are not a permutation of the scene indices")
)

// revision は Editor と refine の応答を解釈した結果です。
type revision struct {
	artifacts []domain.SceneArtifact
	// artifactsErr は成果物を受け入れられなかった理由です。順序とメモはこれと無関係に解釈します。
	artifactsErr error
	// order は final_order が 0..N-1 の順列だったときだけ設定されます。
	order        []int
	orderChanged bool
	reason       string
	notes        string
}

// parseRevision は {prompts: [...]} 形式のオブジェクト、または成果物の配列を解釈します。
// prompts キーがあれば、その中身に関係なく順序とメモを読み取ります。
// 成果物は N 件ちょうどで scene_index が順列になっている場合だけ受け入れ、scene_index 順に並べ替えます。
func parseRevision(raw any, n int) (revision, error) {
	var (
		rev       revision
		rawPrompt any
	)

	switch v := raw.(type) {
	case map[string]any:
		p, ok := v["prompts"]
		if !ok {
			return revision{}, errNoPrompts
		}
		rawPrompt = p
		if order, ok := planner.IntList(v["final_order"]); ok && planner.IsPermutation(order, n) {
			rev.order = order
		}
		rev.orderChanged = truthy(v["order_changed"])
		rev.reason, _ = v["order_change_reason"].(string)
		rev.notes, _ = v["review_notes"].(string)
	case []any:
		rawPrompt = v
	default:
		return revision{}, errNoPrompts
	}

	rev.artifacts, rev.artifactsErr = decodeArtifacts(rawPrompt, n)
	return rev, nil
}

func decodeArtifacts(raw any, n int) ([]domain.SceneArtifact, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: prompts is %T", errNoPrompts, raw)
	}
	if len(items) != n {
		return nil, fmt.Errorf("%w: got %d, want %d", errArtifactCount, len(items), n)
	}

	artifacts := make([]domain.SceneArtifact, 0, n)
	indices := make([]int, 0, n)
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%d 番目の成果物がオブジェクトではありません", i)
		}
		a, err := decodeArtifact(obj)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
		indices = append(indices, a.SceneIndex)
	}
	if !planner.IsPermutation(indices, n) {
		return nil, errArtifactIndices
	}

	sort.SliceStable(artifacts, func(i, j int) bool {
		return artifacts[i].SceneIndex < artifacts[j].SceneIndex
	})
	return artifacts, nil
}

// decodeArtifact は成果物のオブジェクトを型付きの値に変換します。
// 文字列項目に数値や真偽値が入っていても文字列化して受け入れ、形の合わない入れ子のプロンプトは捨てます。
func decodeArtifact(obj map[string]any) (domain.SceneArtifact, error) {
	b, err := json.Marshal(looseArtifact(obj))
	if err != nil {
		return domain.SceneArtifact{}, err
	}
	var a domain.SceneArtifact
	if err := json.Unmarshal(b, &a); err != nil {
		return domain.SceneArtifact{}, fmt.Errorf("成果物のデコードに失敗しました: %w", err)
	}
	return a, nil
}

// looseArtifact は obj を複製し、SceneArtifact にデコードできる形へ寄せます。
func looseArtifact(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		switch k {
		case "scene_index":
			if t, ok := v.(string); ok {
				if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
					out[k] = i
				}
				continue
			}
			out[k] = v
		case "structured_prompt", "context_prompt":
			if m, ok := v.(map[string]any); ok {
				out[k] = stringFields(m)
			}
		default:
			out[k] = planner.String(v)
		}
	}
	return out
}

func stringFields(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = planner.String(v)
	}
	return out
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	case float64:
		return t != 0
	default:
		return false
	}
}

// sceneDirection は計画のシーンから Writer への指示を組み立てます。空の項目には既定値を使います。
func sceneDirection(pt domain.PipelineType, scene domain.PlanScene, index, position int) prompts.SceneDirection {
	d := prompts.SceneDirection{
		Index:            index,
		SequencePosition: position,
		Duration:         orDefault(scene.DurationSuggestion, "5s"),
		Transition:       orDefault(scene.TransitionToNext, "natural cut"),
	}
	if pt == domain.PipelineMotionControl {
		d.ReferenceMotionSegment = orDefault(scene.ReferenceMotionSegment, "match reference video motion")
		d.EnvironmentStyle = orDefault(scene.EnvironmentStyle, "complementary environment")
		d.BackgroundAnimation = orDefault(scene.BackgroundAnimationCues, "appropriate animated background elements")
		return d
	}
	d.CameraMove = orDefault(scene.RecommendedCameraMove, "dolly forward")
	d.SubjectMotion = orDefault(scene.RecommendedSubjectMotion, "subtle movement")
	d.EnvironmentMotion = orDefault(scene.RecommendedEnvironmentMotion, "ambient movement")
	d.Audio = audioDirection(scene.RecommendedAudio)
	d.Notes = scene.DirectionNotes
	d.EnergyLevel = energyLevel(scene.EnergyLevel)
	return d
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func audioDirection(v any) string {
	switch t := v.(type) {
	case nil:
		return "style-appropriate ambient"
	case string:
		return orDefault(t, "style-appropriate ambient")
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return "style-appropriate ambient"
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

func energyLevel(v any) string {
	switch t := v.(type) {
	case nil:
		return "5"
	case string:
		return orDefault(t, "5")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(t)
	}
}
