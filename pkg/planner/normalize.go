// Package planner は Config ステージが返すシーン計画を正規化します。
package planner

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shouni/go-motion-director/pkg/domain"
)

// Normalize は抽出済みの JSON 値を N シーンの ScenePlan に整えます。
//
// scenes が無い場合は domain.ErrInvalidPlan を返します。シーンが不足していれば
// 既定のシーンで補い、超過分は切り捨てます。recommended_order が 0..N-1 の順列でなければ恒等順列にします。
// それ以外の内容はモデルの出力をそのまま通します。
func Normalize(raw any, n int, pt domain.PipelineType) (domain.ScenePlan, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return domain.ScenePlan{}, domain.ErrInvalidPlan
	}
	rawScenes, ok := obj["scenes"].([]any)
	if !ok {
		return domain.ScenePlan{}, domain.ErrInvalidPlan
	}

	if len(rawScenes) > n {
		rawScenes = rawScenes[:n]
	}

	scenes := make([]domain.PlanScene, 0, n)
	for i, rs := range rawScenes {
		m, ok := rs.(map[string]any)
		if !ok {
			return domain.ScenePlan{}, fmt.Errorf("%w: scene %d is not an object", domain.ErrInvalidPlan, i)
		}
		scenes = append(scenes, sceneFromMap(m, i))
	}
	for len(scenes) < n {
		scenes = append(scenes, domain.DefaultPlanScene(pt, len(scenes)))
	}

	return domain.ScenePlan{
		Scenes:                   scenes,
		RecommendedOrder:         NormalizeOrder(obj["recommended_order"], n),
		OrderReasoning:           str(obj, "order_reasoning"),
		OverallMoodArc:           str(obj, "overall_mood_arc"),
		PacingCurve:              str(obj, "pacing_curve"),
		AudioArc:                 str(obj, "audio_arc"),
		OverallApproach:          str(obj, "overall_approach"),
		MotionCompatibilityNotes: str(obj, "motion_compatibility_notes"),
	}, nil
}

// NormalizeOrder は任意の JSON 値を 0..n-1 の順列として返します。
// 整数のリストでない場合や、0..n-1 の順列になっていない場合は恒等順列を返します。
func NormalizeOrder(raw any, n int) []int {
	ints, ok := IntList(raw)
	if !ok || !IsPermutation(ints, n) {
		return Identity(n)
	}
	return ints
}

// IntList は JSON の配列を整数のスライスに変換します。整数以外の要素が含まれれば false を返します。
func IntList(raw any) ([]int, bool) {
	switch v := raw.(type) {
	case []int:
		return append([]int(nil), v...), true
	case []any:
		out := make([]int, 0, len(v))
		for _, e := range v {
			i, ok := toInt(e)
			if !ok {
				return nil, false
			}
			out = append(out, i)
		}
		return out, true
	default:
		return nil, false
	}
}

// IsPermutation は order が 0..n-1 の順列であるかを返します。
func IsPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range order {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// Identity は [0, 1, ..., n-1] を返します。
func Identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

func sceneFromMap(m map[string]any, pos int) domain.PlanScene {
	s := domain.PlanScene{
		SceneIndex:       pos,
		OriginalPosition: pos,

		ShotTypeDetected:             str(m, "shot_type_detected"),
		SubjectDescription:           str(m, "subject_description"),
		Environment:                  str(m, "environment"),
		ColorTemperature:             str(m, "color_temperature"),
		EnergyLevel:                  m["energy_level"],
		RecommendedCameraMove:        str(m, "recommended_camera_move"),
		RecommendedSubjectMotion:     str(m, "recommended_subject_motion"),
		RecommendedEnvironmentMotion: str(m, "recommended_environment_motion"),
		RecommendedAudio:             m["recommended_audio"],
		DirectionNotes:               str(m, "direction_notes"),

		ReferenceMotionSegment:  str(m, "reference_motion_segment"),
		SubjectPoseNotes:        str(m, "subject_pose_notes"),
		EnvironmentStyle:        str(m, "environment_style"),
		LightingDirection:       str(m, "lighting_direction"),
		BackgroundAnimationCues: str(m, "background_animation_cues"),

		DurationSuggestion: str(m, "duration_suggestion"),
		TransitionToNext:   str(m, "transition_to_next"),
	}
	if i, ok := toInt(m["scene_index"]); ok {
		s.SceneIndex = i
	}
	if i, ok := toInt(m["original_position"]); ok {
		s.OriginalPosition = i
	}
	return s
}

// str は m[key] を String で文字列化します。
func str(m map[string]any, key string) string {
	return String(m[key])
}

// String は JSON のスカラー値を文字列にします。nil は空文字、スカラーの配列はカンマ区切りになります。
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := String(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
