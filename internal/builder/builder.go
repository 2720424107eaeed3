package builder

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-motion-director/internal/config"
	"github.com/shouni/go-motion-director/internal/server"
	"github.com/shouni/go-motion-director/pkg/agent"
	"github.com/shouni/go-motion-director/pkg/director"
	"github.com/shouni/go-motion-director/pkg/domain"
	"github.com/shouni/go-motion-director/pkg/prompts"
	"github.com/shouni/go-motion-director/pkg/promptset"
	"github.com/shouni/go-motion-director/pkg/scheduler"
	"github.com/shouni/go-motion-director/pkg/session"
)

// BuildAppContext は設定から共通の依存関係を初期化します。
func BuildAppContext(cfg *config.Config) (*AppContext, error) {
	styles, err := domain.LoadStyleCatalogFile(cfg.StylePresetsFile)
	if err != nil {
		return nil, fmt.Errorf("スタイルプリセットの読み込みに失敗しました: %w", err)
	}

	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("プロンプトビルダーの初期化に失敗しました: %w", err)
	}

	pool := agent.NewClientPool(0, agent.NewGenAIClient)
	inv, err := agent.NewGeminiInvoker(pool, agent.GeminiConfig{
		Model:         cfg.GeminiModel,
		Temperature:   cfg.GeminiTemperature,
		DefaultAPIKey: cfg.GeminiAPIKey,
		Timeout:       cfg.AgentTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("エージェント実行器の初期化に失敗しました: %w", err)
	}

	slog.Debug("AppContext initialized", "model", cfg.GeminiModel, "presets", len(styles.Presets))
	return NewAppContext(cfg, styles, pb, inv), nil
}

// BuildDirector は Motion Director を構築します。
func BuildDirector(appCtx *AppContext) (*director.Director, error) {
	cfg := appCtx.Config
	store := session.NewCacheStore[domain.SessionEntry](cfg.SessionTTL, session.WithCleanupInterval(cfg.SessionSweep))

	d, err := director.New(director.Args{
		Invoker: appCtx.Invoker,
		Prompts: appCtx.Prompts,
		Store:   store,
		Styles:  appCtx.Styles,
		Scheduler: scheduler.Options{
			Concurrency: cfg.WriterConcurrency,
			Limiter:     scheduler.NewLimiter(cfg.WriterRateInterval, cfg.WriterRateBurst),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Motion Director の初期化に失敗しました: %w", err)
	}
	return d, nil
}

// BuildPromptSets はプロンプトセットのサービスを構築します。
func BuildPromptSets(appCtx *AppContext) (*promptset.Service, error) {
	cfg := appCtx.Config
	store := session.NewCacheStore[promptset.Entry](cfg.SessionTTL, session.WithCleanupInterval(cfg.SessionSweep))

	svc, err := promptset.New(promptset.Args{
		Invoker: appCtx.Invoker,
		Prompts: appCtx.Prompts,
		Store:   store,
	})
	if err != nil {
		return nil, fmt.Errorf("プロンプトセットの初期化に失敗しました: %w", err)
	}
	return svc, nil
}

// BuildHandler は HTTP ハンドラを構築します。
func BuildHandler(appCtx *AppContext) (*server.Handler, error) {
	d, err := BuildDirector(appCtx)
	if err != nil {
		return nil, err
	}
	ps, err := BuildPromptSets(appCtx)
	if err != nil {
		return nil, err
	}
	return server.NewHandler(d, ps), nil
}
