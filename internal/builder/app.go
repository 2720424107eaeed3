package builder

import (
	"github.com/shouni/go-motion-director/internal/config"
	"github.com/shouni/go-motion-director/pkg/agent"
	"github.com/shouni/go-motion-director/pkg/domain"
	"github.com/shouni/go-motion-director/pkg/prompts"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config  *config.Config        // Configは、環境変数とフラグから組み立てた設定です。
	Styles  *domain.StyleCatalog  // Stylesは、全パイプラインで共有するスタイルプリセットです。
	Prompts prompts.PromptBuilder // Promptsは、全エージェントの指示文を組み立てるビルダーです。
	Invoker agent.Invoker         // Invokerは、Gemini を呼び出す共通のエージェント実行器です。
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(cfg *config.Config, styles *domain.StyleCatalog, pb prompts.PromptBuilder, inv agent.Invoker) *AppContext {
	return &AppContext{
		Config:  cfg,
		Styles:  styles,
		Prompts: pb,
		Invoker: inv,
	}
}
