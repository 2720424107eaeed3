// Package promptset は参照画像 1 枚から写真・絵コンテ用のプロンプトセットを生成し、refine します。
package promptset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shouni/go-motion-director/pkg/agent"
	"github.com/shouni/go-motion-director/pkg/domain"
	"github.com/shouni/go-motion-director/pkg/extract"
	"github.com/shouni/go-motion-director/pkg/prompts"
	"github.com/shouni/go-motion-director/pkg/session"
)

const (
	ModePhotoset   = "photoset"
	ModeStoryboard = "storyboard"

	DefaultCount = 6
	MaxCount     = 20
)

// ErrSessionNotFound はプロンプトセットのセッションが存在しないか失効していることを示します。
var ErrSessionNotFound = errors.New("session not found or expired")

// Item はプロンプトセットの 1 件です。ID は応答のたびに振り直します。
type Item struct {
	ID             string `json:"id"`
	Text           string `json:"text"`
	ShotType       string `json:"shotType"`
	Expression     string `json:"expression"`
	Pose           string `json:"pose"`
	CameraAngle    string `json:"cameraAngle"`
	NegativePrompt string `json:"negativePrompt"`
}

// rawItem はモデルが返す形式です。negative_prompt の表記揺れも受け付けます。
type rawItem struct {
	Text              string `json:"text"`
	ShotType          string `json:"shotType"`
	Expression        string `json:"expression"`
	Pose              string `json:"pose"`
	CameraAngle       string `json:"cameraAngle"`
	NegativePrompt    string `json:"negativePrompt,omitempty"`
	NegativePromptAlt string `json:"negative_prompt,omitempty"`
}

// Entry は refine のために保持するセッションです。
type Entry struct {
	Mode   string
	APIKey string
	Items  []rawItem
}

// GenerateRequest は生成リクエストです。
type GenerateRequest struct {
	APIKey       string
	Image        domain.MediaPart
	Mode         string
	Count        int
	SceneContext string
}

// RefineRequest は refine リクエストです。PromptIndex が nil なら全件が対象です。
type RefineRequest struct {
	SessionID   string
	Message     string
	PromptIndex *int
	APIKey      string
}

// Result は生成と refine の応答です。
type Result struct {
	SessionID string
	Prompts   []Item
}

// Service はプロンプトセットの生成と refine を行います。
type Service struct {
	invoker   agent.Invoker
	prompts   prompts.PromptBuilder
	store     session.Store[Entry]
	extractor *extract.Extractor
	newID     func() string
	now       func() time.Time
}

// Args は Service の依存関係です。
type Args struct {
	Invoker agent.Invoker
	Prompts prompts.PromptBuilder
	Store   session.Store[Entry]

	NewID func() string
	Now   func() time.Time
}

// New は依存関係を検証して Service を作成します。
func New(a Args) (*Service, error) {
	if a.Invoker == nil {
		return nil, fmt.Errorf("Invoker は必須です")
	}
	if a.Prompts == nil {
		return nil, fmt.Errorf("PromptBuilder は必須です")
	}
	if a.Store == nil {
		return nil, fmt.Errorf("SessionStore は必須です")
	}
	s := &Service{
		invoker: a.Invoker,
		prompts: a.Prompts,
		store:   a.Store,
		// 応答は配列のみを受け付ける
		extractor: extract.New(extract.Direct, extract.OutermostArray),
		newID:     a.NewID,
		now:       a.Now,
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Generate は参照画像を解析し、count 件のプロンプトを生成します。
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*Result, error) {
	s.store.Sweep(s.now())

	if len(req.Image.Data) == 0 {
		return nil, domain.NewInputError("image_base64 is required")
	}
	count := req.Count
	if count == 0 {
		count = DefaultCount
	}
	if count < 1 || count > MaxCount {
		return nil, domain.NewInputError(fmt.Sprintf("count must be between 1 and %d", MaxCount))
	}
	mode := ModePhotoset
	if req.Mode == ModeStoryboard {
		mode = ModeStoryboard
	}

	instruction, err := s.prompts.Build(mode, prompts.TemplateData{
		Count:        count,
		SceneContext: req.SceneContext,
		ShotTypes:    prompts.ShotTypes,
		CameraAngles: prompts.CameraAngles,
	})
	if err != nil {
		return nil, err
	}

	logger := slog.With("mode", mode, "count", count)
	startTime := time.Now()

	text, err := s.invoker.Invoke(ctx, agent.Request{
		Name:        "prompt_generator",
		Instruction: instruction,
		Parts: []agent.Part{
			agent.MediaPart(req.Image),
			agent.TextPart(fmt.Sprintf("Analyze this reference image and generate %d prompts.", count)),
		},
		APIKey: req.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("プロンプトセットの生成に失敗しました: %w", err)
	}
	items, err := s.parseItems(text)
	if err != nil {
		return nil, err
	}

	sessionID := s.newID()
	s.store.Put(sessionID, Entry{Mode: mode, APIKey: req.APIKey, Items: items})

	logger.Info("Prompt set generated", "session_id", sessionID, "items", len(items), "duration", time.Since(startTime).Round(time.Millisecond))
	return &Result{SessionID: sessionID, Prompts: s.withIDs(items)}, nil
}

// Refine はセッションのプロンプトをユーザーのフィードバックで書き換えます。
func (s *Service) Refine(ctx context.Context, req RefineRequest) (*Result, error) {
	s.store.Sweep(s.now())

	entry, ok := s.store.Get(req.SessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if req.PromptIndex != nil && (*req.PromptIndex < 0 || *req.PromptIndex >= len(entry.Items)) {
		return nil, domain.NewInputError(fmt.Sprintf("prompt_index must be between 0 and %d", len(entry.Items)-1))
	}

	current, err := domain.IndentJSON(entry.Items)
	if err != nil {
		return nil, err
	}
	instruction, err := s.prompts.Build(prompts.ModePromptRefine, prompts.TemplateData{
		Prompts:     current,
		RefineScope: refineScope(req.PromptIndex),
	})
	if err != nil {
		return nil, err
	}

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = entry.APIKey
	}
	text, err := s.invoker.Invoke(ctx, agent.Request{
		Name:        "prompt_refiner",
		Instruction: instruction,
		Parts:       []agent.Part{agent.TextPart(req.Message)},
		APIKey:      apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("プロンプトセットの refine に失敗しました: %w", err)
	}
	items, err := s.parseItems(text)
	if err != nil {
		return nil, err
	}

	entry.Items = items
	s.store.Put(req.SessionID, entry)

	slog.Info("Prompt set refined", "session_id", req.SessionID, "items", len(items), "scoped", req.PromptIndex != nil)
	return &Result{SessionID: req.SessionID, Prompts: s.withIDs(items)}, nil
}

func (s *Service) parseItems(text string) ([]rawItem, error) {
	raw, err := s.extractor.Extract(text)
	if err != nil {
		return nil, err
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("JSON 配列を期待しましたが %T でした", raw)
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	var items []rawItem
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("プロンプトのデコードに失敗しました: %w", err)
	}
	for i := range items {
		if items[i].NegativePrompt == "" {
			items[i].NegativePrompt = items[i].NegativePromptAlt
		}
		items[i].NegativePromptAlt = ""
	}
	return items, nil
}

func (s *Service) withIDs(items []rawItem) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = Item{
			ID:             s.newID(),
			Text:           it.Text,
			ShotType:       it.ShotType,
			Expression:     it.Expression,
			Pose:           it.Pose,
			CameraAngle:    it.CameraAngle,
			NegativePrompt: it.NegativePrompt,
		}
	}
	return out
}

func refineScope(index *int) string {
	if index != nil {
		return fmt.Sprintf("The user wants to modify ONLY prompt #%d (index %d). Keep all other prompts exactly the same.", *index+1, *index)
	}
	return "Apply the user's feedback to whichever prompts are relevant."
}
