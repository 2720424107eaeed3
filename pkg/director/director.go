// Package director はシーン計画、シーンごとの並列執筆、レビューからなる Motion Director パイプラインを実行します。
package director

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shouni/go-motion-director/pkg/agent"
	"github.com/shouni/go-motion-director/pkg/domain"
	"github.com/shouni/go-motion-director/pkg/extract"
	"github.com/shouni/go-motion-director/pkg/prompts"
	"github.com/shouni/go-motion-director/pkg/scheduler"
	"github.com/shouni/go-motion-director/pkg/session"
)

// Director は Pro-I2V と Motion Control の 2 つのパイプラインと refine を提供します。
type Director struct {
	invoker   agent.Invoker
	prompts   prompts.PromptBuilder
	store     session.Store[domain.SessionEntry]
	styles    *domain.StyleCatalog
	extractor *extract.Extractor
	fanout    scheduler.Options
	newID     func() string
	now       func() time.Time
}

// Args は Director の依存関係です。
type Args struct {
	Invoker agent.Invoker
	Prompts prompts.PromptBuilder
	Store   session.Store[domain.SessionEntry]
	Styles  *domain.StyleCatalog

	// 以下は省略可能です。
	Extractor *extract.Extractor
	Scheduler scheduler.Options
	NewID     func() string
	Now       func() time.Time
}

// New は依存関係を検証して Director を作成します。
func New(a Args) (*Director, error) {
	if a.Invoker == nil {
		return nil, fmt.Errorf("Invoker は必須です")
	}
	if a.Prompts == nil {
		return nil, fmt.Errorf("PromptBuilder は必須です")
	}
	if a.Store == nil {
		return nil, fmt.Errorf("SessionStore は必須です")
	}
	if a.Styles == nil {
		return nil, fmt.Errorf("StyleCatalog は必須です")
	}

	d := &Director{
		invoker:   a.Invoker,
		prompts:   a.Prompts,
		store:     a.Store,
		styles:    a.Styles,
		extractor: a.Extractor,
		fanout:    a.Scheduler,
		newID:     a.NewID,
		now:       a.Now,
	}
	if d.extractor == nil {
		d.extractor = extract.Default()
	}
	if d.newID == nil {
		d.newID = func() string { return uuid.New().String() }
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d, nil
}

// Styles はパイプラインが使うスタイルプリセットのカタログを返します。
func (d *Director) Styles() *domain.StyleCatalog {
	return d.styles
}

// GenerateRequest は generate の入力です。
type GenerateRequest struct {
	APIKey       string
	Images       []domain.MediaPart
	StylePreset  string
	UserNote     string
	PipelineType string

	// Motion Control のみ
	ReferenceVideo       *domain.MediaPart
	CharacterOrientation string
	KeepOriginalSound    bool
}

// RefineRequest は refine の入力です。SceneIndex が nil なら全シーンが対象です。
type RefineRequest struct {
	SessionID  string
	Message    string
	SceneIndex *int
	APIKey     string
}

// Result はパイプラインと refine の出力です。Prompts は scene_index の昇順に並びます。
type Result struct {
	SessionID      string                 `json:"session_id"`
	PipelineType   domain.PipelineType    `json:"pipeline_type"`
	Prompts        []domain.SceneArtifact `json:"prompts"`
	Order          []int                  `json:"recommended_order"`
	OrderReasoning string                 `json:"order_reasoning,omitempty"`
	VideoAnalysis  map[string]any         `json:"video_analysis,omitempty"`
}

// sweep は期限切れのセッションを掃除します。各呼び出しの先頭で実行します。
func (d *Director) sweep() {
	d.store.Sweep(d.now())
}
