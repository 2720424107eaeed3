package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/go-motion-director/internal/config"
)

// globalOptions は全サブコマンドで共有するフラグなのだ。
type globalOptions struct {
	LogLevel     string
	LogFormat    string
	Model        string
	APIKey       string
	PresetsFile  string
	AgentTimeout time.Duration
}

var opts globalOptions

var rootCmd = &cobra.Command{
	Use:           "motion-director",
	Short:         "画像からモーションプロンプトを演出する Motion Director なのだ。",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger(opts.LogLevel, opts.LogFormat)
	},
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(serveCmd, generateCmd, presetsCmd)
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- ログ設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "ログ形式（text, json）なのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.Model, "model", "", "使用する Gemini モデル名なのだ。空なら GEMINI_MODEL を使うのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.APIKey, "api-key", "", "Gemini の API キーなのだ。空なら GEMINI_API_KEY を使うのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.PresetsFile, "presets-file", "", "スタイルプリセットの YAML パスなのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.AgentTimeout, "agent-timeout", 0, "エージェント 1 回あたりのタイムアウトなのだ。0 なら AGENT_TIMEOUT を使うのだ。")
}

// loadConfig は環境変数を読み込み、フラグで上書きするのだ。
func loadConfig() *config.Config {
	cfg := config.LoadConfig()
	if opts.Model != "" {
		cfg.GeminiModel = opts.Model
	}
	if opts.APIKey != "" {
		cfg.GeminiAPIKey = opts.APIKey
	}
	if opts.PresetsFile != "" {
		cfg.StylePresetsFile = opts.PresetsFile
	}
	if opts.AgentTimeout > 0 {
		cfg.AgentTimeout = opts.AgentTimeout
	}
	return cfg
}

// setupLogger はフラグに従って slog のデフォルトロガーを差し替えるのだ。
func setupLogger(level, format string) error {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("--log-level の値が不正なのだ: %w", err)
	}
	handlerOpts := &slog.HandlerOptions{Level: lv}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	case "text", "":
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	default:
		return fmt.Errorf("--log-format は text か json を指定してほしいのだ: %s", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("コマンドの実行に失敗したのだ", "error", err)
		os.Exit(1)
	}
}
