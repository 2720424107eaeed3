package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-motion-director/pkg/director"
	"github.com/shouni/go-motion-director/pkg/domain"
	"github.com/shouni/go-motion-director/pkg/promptset"
)

type fakeMotion struct {
	generate func(req director.GenerateRequest) (*director.Result, error)
	refine   func(req director.RefineRequest) (*director.Result, error)
	lastGen  director.GenerateRequest
}

func (f *fakeMotion) Generate(_ context.Context, req director.GenerateRequest) (*director.Result, error) {
	f.lastGen = req
	return f.generate(req)
}

func (f *fakeMotion) Refine(_ context.Context, req director.RefineRequest) (*director.Result, error) {
	return f.refine(req)
}

func (f *fakeMotion) Styles() *domain.StyleCatalog {
	return domain.DefaultStyleCatalog()
}

type fakePromptSets struct {
	generate func(req promptset.GenerateRequest) (*promptset.Result, error)
	refine   func(req promptset.RefineRequest) (*promptset.Result, error)
}

func (f *fakePromptSets) Generate(_ context.Context, req promptset.GenerateRequest) (*promptset.Result, error) {
	return f.generate(req)
}

func (f *fakePromptSets) Refine(_ context.Context, req promptset.RefineRequest) (*promptset.Result, error) {
	return f.refine(req)
}

func newTestRouter(m *fakeMotion, p *fakePromptSets) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHandler(m, p))
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	}
	return w, out
}

var jpeg = base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff})

func TestHealth(t *testing.T) {
	r := newTestRouter(&fakeMotion{}, &fakePromptSets{})
	w, body := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(&fakeMotion{}, &fakePromptSets{})
	req := httptest.NewRequest(http.MethodOptions, "/motion/generate", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPresets(t *testing.T) {
	r := newTestRouter(&fakeMotion{}, &fakePromptSets{})
	w, body := do(t, r, http.MethodGet, "/motion/presets", nil)
	require.Equal(t, http.StatusOK, w.Code)

	catalog := domain.DefaultStyleCatalog()
	assert.Equal(t, catalog.Default, body["default"])
	presets, ok := body["presets"].([]any)
	require.True(t, ok)
	assert.Len(t, presets, len(catalog.Presets))
	first := presets[0].(map[string]any)
	assert.Equal(t, catalog.Presets[0].ID, first["id"])
	assert.NotEmpty(t, first["audio_style"])
}

func TestMotionGenerate_OK(t *testing.T) {
	m := &fakeMotion{generate: func(req director.GenerateRequest) (*director.Result, error) {
		return &director.Result{
			SessionID:    "s1",
			PipelineType: domain.PipelineMotionControl,
			Prompts: []domain.SceneArtifact{{
				SceneIndex: 0,
				ContextPrompt: &domain.ContextPrompt{
					Scene:           "rooftop at dusk",
					AudioAmbience:   "wind",
					AudioSFX:        "",
					MusicSuggestion: "lofi",
				},
				MotionContextPrompt: "rooftop, warm rim light",
				NegativePrompt:      "flicker",
			}},
			Order:         []int{0},
			VideoAnalysis: map[string]any{"motion_summary": "spin"},
		}, nil
	}}
	r := newTestRouter(m, &fakePromptSets{})

	w, body := do(t, r, http.MethodPost, "/motion/generate", map[string]any{
		"images":                        []map[string]any{{"base64": jpeg}},
		"pipeline_type":                 "motion-control",
		"global_reference_video_base64": jpeg,
		"character_orientation":         "video",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "image/jpeg", m.lastGen.Images[0].MIMEType)
	require.NotNil(t, m.lastGen.ReferenceVideo)
	assert.Equal(t, "video/mp4", m.lastGen.ReferenceVideo.MIMEType)
	assert.True(t, m.lastGen.KeepOriginalSound, "keep_original_sound の既定値は true")

	assert.Equal(t, "s1", body["session_id"])
	assert.Equal(t, "motion-control", body["pipeline_type"])
	assert.Nil(t, body["order_reasoning"])
	assert.Equal(t, []any{float64(0)}, body["recommended_order"])

	item := body["prompts"].([]any)[0].(map[string]any)
	assert.Equal(t, "rooftop, warm rim light", item["motion_prompt"])
	assert.Equal(t, "5s", item["duration_suggestion"])
	assert.Equal(t, "flicker", item["negative_prompt"])
	sp := item["structured_prompt"].(map[string]any)
	assert.Equal(t, "rooftop at dusk", sp["scene"])
	assert.Equal(t, "wind", sp["audio_ambience_sfx"])
	assert.Equal(t, "No dialogue", sp["audio_dialogue"])
	assert.Equal(t, "lofi", sp["music"])
	assert.Equal(t, "flicker", sp["avoid"])
}

func TestMotionGenerate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   any
		status int
		detail string
	}{
		{"入力エラーは 400", domain.NewInputError("At least one image is required"), map[string]any{}, http.StatusBadRequest, "At least one image is required"},
		{"ラップされた入力エラーも 400", errors.Join(domain.NewInputError("Maximum 10 images allowed")), map[string]any{}, http.StatusBadRequest, "Maximum 10 images allowed"},
		{"内部エラーは 500", errors.New("config agent failed"), map[string]any{}, http.StatusInternalServerError, "config agent failed"},
		{"壊れた JSON は 400", nil, "{", http.StatusBadRequest, ""},
		{"不正な base64 は 400", nil, map[string]any{"images": []map[string]any{{"base64": "!!!"}}}, http.StatusBadRequest, "images[0]: invalid base64 data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			m := &fakeMotion{generate: func(director.GenerateRequest) (*director.Result, error) {
				called = true
				return nil, tt.err
			}}
			r := newTestRouter(m, &fakePromptSets{})
			w, body := do(t, r, http.MethodPost, "/motion/generate", tt.body)
			assert.Equal(t, tt.status, w.Code)
			if tt.detail != "" {
				assert.Equal(t, tt.detail, body["detail"])
			}
			if tt.err == nil {
				assert.False(t, called, "デコードに失敗したらパイプラインは呼ばれない")
			}
		})
	}
}

func TestMotionRefine(t *testing.T) {
	t.Run("セッションなしは 404", func(t *testing.T) {
		m := &fakeMotion{refine: func(director.RefineRequest) (*director.Result, error) {
			return nil, domain.ErrSessionNotFound
		}}
		r := newTestRouter(m, &fakePromptSets{})
		w, body := do(t, r, http.MethodPost, "/motion/refine", map[string]any{"session_id": "x", "message": "faster"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Motion session not found or expired", body["detail"])
	})
	t.Run("scene_index を渡す", func(t *testing.T) {
		var got director.RefineRequest
		m := &fakeMotion{refine: func(req director.RefineRequest) (*director.Result, error) {
			got = req
			return &director.Result{SessionID: req.SessionID, PipelineType: domain.PipelineProI2V, Order: []int{0}}, nil
		}}
		r := newTestRouter(m, &fakePromptSets{})
		w, body := do(t, r, http.MethodPost, "/motion/refine", map[string]any{"session_id": "s1", "message": "slower", "scene_index": 1})
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, got.SceneIndex)
		assert.Equal(t, 1, *got.SceneIndex)
		assert.Equal(t, "pro-i2v", body["pipeline_type"])
		assert.Empty(t, body["prompts"])
	})
	t.Run("message なしは 400", func(t *testing.T) {
		r := newTestRouter(&fakeMotion{}, &fakePromptSets{})
		w, _ := do(t, r, http.MethodPost, "/motion/refine", map[string]any{"session_id": "s1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPromptSets(t *testing.T) {
	t.Run("生成", func(t *testing.T) {
		var got promptset.GenerateRequest
		p := &fakePromptSets{generate: func(req promptset.GenerateRequest) (*promptset.Result, error) {
			got = req
			return &promptset.Result{SessionID: "p1", Prompts: []promptset.Item{{ID: "a", Text: "[Close-up, Eye Level] x", ShotType: "Close-up"}}}, nil
		}}
		r := newTestRouter(&fakeMotion{}, p)
		w, body := do(t, r, http.MethodPost, "/generate", map[string]any{"image_base64": jpeg, "count": 3, "mode": "storyboard"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 3, got.Count)
		assert.Equal(t, "image/jpeg", got.Image.MIMEType)
		assert.Equal(t, "p1", body["session_id"])
		item := body["prompts"].([]any)[0].(map[string]any)
		assert.Equal(t, "Close-up", item["shotType"])
	})
	t.Run("refine のセッションなしは 404", func(t *testing.T) {
		p := &fakePromptSets{refine: func(promptset.RefineRequest) (*promptset.Result, error) {
			return nil, promptset.ErrSessionNotFound
		}}
		r := newTestRouter(&fakeMotion{}, p)
		w, body := do(t, r, http.MethodPost, "/refine", map[string]any{"session_id": "x", "message": "m"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Session not found or expired", body["detail"])
	})
}
