package promptset

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shouni/go-motion-director/pkg/agent"
	"github.com/shouni/go-motion-director/pkg/domain"
	"github.com/shouni/go-motion-director/pkg/prompts"
	"github.com/shouni/go-motion-director/pkg/session"
)

type recorder struct {
	mu       sync.Mutex
	requests []agent.Request
	replies  []string
	err      error
}

func (r *recorder) Invoke(_ context.Context, req agent.Request) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	if r.err != nil {
		return "", r.err
	}
	if len(r.replies) == 0 {
		return "", agent.ErrEmptyResponse
	}
	reply := r.replies[0]
	r.replies = r.replies[1:]
	return reply, nil
}

func newTestService(t *testing.T, inv agent.Invoker, now func() time.Time) (*Service, *session.CacheStore[Entry]) {
	t.Helper()
	builder, err := prompts.NewTextPromptBuilder()
	if err != nil {
		t.Fatalf("NewTextPromptBuilder: %v", err)
	}
	store := session.NewCacheStore[Entry](time.Hour, session.WithClock(now))
	seq := 0
	svc, err := New(Args{
		Invoker: inv,
		Prompts: builder,
		Store:   store,
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
		Now: now,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc, store
}

func image() domain.MediaPart {
	return domain.MediaPart{Data: []byte{0xff, 0xd8}, MIMEType: "image/jpeg"}
}

const twoItems = "```json\n" + `[
 {"text": "[Close-up, Eye Level] a", "shotType": "Close-up", "expression": "calm", "pose": "still", "cameraAngle": "Eye Level"},
 {"text": "[Full Shot, Low Angle] b", "shotType": "Full Shot", "expression": "fierce", "pose": "stride", "cameraAngle": "Low Angle", "negative_prompt": "blur"}
]` + "\n```"

func TestGenerate(t *testing.T) {
	now := time.Now()
	inv := &recorder{replies: []string{twoItems}}
	svc, store := newTestService(t, inv, func() time.Time { return now })

	res, err := svc.Generate(context.Background(), GenerateRequest{APIKey: "k", Image: image(), Count: 2, SceneContext: "rooftop"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.SessionID != "id-1" {
		t.Errorf("SessionID = %q", res.SessionID)
	}
	if len(res.Prompts) != 2 {
		t.Fatalf("len(Prompts) = %d", len(res.Prompts))
	}
	if res.Prompts[1].NegativePrompt != "blur" {
		t.Errorf("negative_prompt が反映されていません: %+v", res.Prompts[1])
	}
	if res.Prompts[0].ID == res.Prompts[1].ID {
		t.Errorf("ID が重複しています")
	}
	if store.Len() != 1 {
		t.Errorf("セッション数 = %d", store.Len())
	}

	req := inv.requests[0]
	if !strings.Contains(req.Instruction, "GENERATE 2 EDITORIAL VARIATIONS") {
		t.Errorf("photoset の指示になっていません")
	}
	if !strings.Contains(req.Instruction, "Scene context: rooftop") {
		t.Errorf("scene context が含まれていません")
	}
	if got := req.Parts[len(req.Parts)-1].Text; got != "Analyze this reference image and generate 2 prompts." {
		t.Errorf("user turn = %q", got)
	}
	if req.Parts[0].MIMEType != "image/jpeg" {
		t.Errorf("画像パートがありません")
	}
}

func TestGenerate_Defaults(t *testing.T) {
	inv := &recorder{replies: []string{twoItems}}
	svc, _ := newTestService(t, inv, time.Now)

	if _, err := svc.Generate(context.Background(), GenerateRequest{Image: image(), Mode: "unknown"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := inv.requests[0].Parts[1].Text; got != "Analyze this reference image and generate 6 prompts." {
		t.Errorf("既定の件数になっていません: %q", got)
	}
}

func TestGenerate_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  GenerateRequest
		want string
	}{
		{"画像なし", GenerateRequest{}, "image_base64 is required"},
		{"件数が多すぎる", GenerateRequest{Image: image(), Count: 21}, "count must be between 1 and 20"},
		{"件数が負", GenerateRequest{Image: image(), Count: -1}, "count must be between 1 and 20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &recorder{}
			svc, _ := newTestService(t, inv, time.Now)
			_, err := svc.Generate(context.Background(), tt.req)
			var inErr *domain.InputError
			if !errors.As(err, &inErr) || inErr.Msg != tt.want {
				t.Fatalf("err = %v, want InputError %q", err, tt.want)
			}
			if len(inv.requests) != 0 {
				t.Errorf("エージェントが呼ばれました")
			}
		})
	}
}

func TestGenerate_Failures(t *testing.T) {
	t.Run("配列でない応答", func(t *testing.T) {
		svc, store := newTestService(t, &recorder{replies: []string{`{"text": "x"}`}}, time.Now)
		if _, err := svc.Generate(context.Background(), GenerateRequest{Image: image()}); err == nil {
			t.Fatal("エラーになるはずです")
		}
		if store.Len() != 0 {
			t.Errorf("セッションが作られました")
		}
	})
	t.Run("空の応答", func(t *testing.T) {
		svc, _ := newTestService(t, &recorder{}, time.Now)
		_, err := svc.Generate(context.Background(), GenerateRequest{Image: image()})
		if !errors.Is(err, agent.ErrEmptyResponse) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestGenerate_Storyboard(t *testing.T) {
	inv := &recorder{replies: []string{twoItems}}
	svc, _ := newTestService(t, inv, time.Now)
	if _, err := svc.Generate(context.Background(), GenerateRequest{Image: image(), Mode: ModeStoryboard, Count: 3}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Contains(inv.requests[0].Instruction, "EDITORIAL VARIATIONS") {
		t.Errorf("storyboard なのに photoset の指示が使われました")
	}
}

func TestRefine(t *testing.T) {
	refined := `[{"text": "[Close-up, Eye Level] a2", "shotType": "Close-up", "expression": "calm", "pose": "still", "cameraAngle": "Eye Level"},
{"text": "[Full Shot, Low Angle] b", "shotType": "Full Shot", "expression": "fierce", "pose": "stride", "cameraAngle": "Low Angle", "negativePrompt": "blur"}]`
	inv := &recorder{replies: []string{twoItems, refined}}
	svc, store := newTestService(t, inv, time.Now)

	gen, err := svc.Generate(context.Background(), GenerateRequest{APIKey: "first", Image: image(), Count: 2})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	idx := 0
	res, err := svc.Refine(context.Background(), RefineRequest{SessionID: gen.SessionID, Message: "softer", PromptIndex: &idx})
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if res.Prompts[0].Text != "[Close-up, Eye Level] a2" {
		t.Errorf("Prompts[0].Text = %q", res.Prompts[0].Text)
	}
	if res.Prompts[0].ID == gen.Prompts[0].ID {
		t.Errorf("ID が振り直されていません")
	}

	req := inv.requests[1]
	if req.APIKey != "first" {
		t.Errorf("APIKey = %q, セッションのキーを使うはずです", req.APIKey)
	}
	if !strings.Contains(req.Instruction, "ONLY prompt #1 (index 0)") {
		t.Errorf("スコープが含まれていません")
	}
	if !strings.Contains(req.Instruction, `"negativePrompt": "blur"`) {
		t.Errorf("現在のプロンプトが含まれていません")
	}
	if req.Parts[0].Text != "softer" {
		t.Errorf("user turn = %q", req.Parts[0].Text)
	}

	entry, _ := store.Get(gen.SessionID)
	if entry.Items[0].Text != "[Close-up, Eye Level] a2" {
		t.Errorf("セッションが更新されていません")
	}
}

func TestRefine_Errors(t *testing.T) {
	t.Run("セッションなし", func(t *testing.T) {
		svc, _ := newTestService(t, &recorder{}, time.Now)
		_, err := svc.Refine(context.Background(), RefineRequest{SessionID: "missing", Message: "x"})
		if !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("範囲外の index", func(t *testing.T) {
		inv := &recorder{replies: []string{twoItems}}
		svc, _ := newTestService(t, inv, time.Now)
		gen, err := svc.Generate(context.Background(), GenerateRequest{Image: image(), Count: 2})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		idx := 2
		_, err = svc.Refine(context.Background(), RefineRequest{SessionID: gen.SessionID, Message: "x", PromptIndex: &idx})
		var inErr *domain.InputError
		if !errors.As(err, &inErr) {
			t.Fatalf("err = %v", err)
		}
		if len(inv.requests) != 1 {
			t.Errorf("refine エージェントが呼ばれました")
		}
	})
	t.Run("失効したセッション", func(t *testing.T) {
		now := time.Now()
		svc, _ := newTestService(t, &recorder{replies: []string{twoItems}}, func() time.Time { return now })
		gen, err := svc.Generate(context.Background(), GenerateRequest{Image: image()})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		now = now.Add(2 * time.Hour)
		_, err = svc.Refine(context.Background(), RefineRequest{SessionID: gen.SessionID, Message: "x"})
		if !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestRefineScope(t *testing.T) {
	if got := refineScope(nil); got != "Apply the user's feedback to whichever prompts are relevant." {
		t.Errorf("refineScope(nil) = %q", got)
	}
	i := 3
	if got := refineScope(&i); !strings.Contains(got, "#4 (index 3)") {
		t.Errorf("refineScope(3) = %q", got)
	}
}
