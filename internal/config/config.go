package config

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultModel              = "gemini-2.5-flash"
	DefaultServerAddr         = ":8001"
	DefaultSessionTTL         = 30 * time.Minute
	DefaultSessionSweep       = 5 * time.Minute
	DefaultWriterConcurrency  = 0 // 0 は無制限なのだ
	DefaultWriterRateInterval = 0 * time.Second
	DefaultWriterRateBurst    = 2
	DefaultAgentTimeout       = 0 * time.Second
	DefaultShutdownTimeout    = 10 * time.Second
)

// Config はアプリケーション全体の環境設定を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTemperature *float32
	ServerAddr        string
	StylePresetsFile  string

	SessionTTL   time.Duration
	SessionSweep time.Duration

	WriterConcurrency  int
	WriterRateInterval time.Duration
	WriterRateBurst    int
	AgentTimeout       time.Duration
}

// LoadConfig は .env と環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	// .env はローカル開発用なので、無くても問題ないのだ
	_ = godotenv.Load()

	return &Config{
		GeminiAPIKey:       envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:        envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		GeminiTemperature:  floatPtrEnv("GEMINI_TEMPERATURE"),
		ServerAddr:         envutil.GetEnv("SERVER_ADDR", DefaultServerAddr),
		StylePresetsFile:   envutil.GetEnv("STYLE_PRESETS_FILE", ""),
		SessionTTL:         durationEnv("SESSION_TTL", DefaultSessionTTL),
		SessionSweep:       durationEnv("SESSION_SWEEP_INTERVAL", DefaultSessionSweep),
		WriterConcurrency:  intEnv("WRITER_CONCURRENCY", DefaultWriterConcurrency),
		WriterRateInterval: durationEnv("WRITER_RATE_INTERVAL", DefaultWriterRateInterval),
		WriterRateBurst:    intEnv("WRITER_RATE_BURST", DefaultWriterRateBurst),
		AgentTimeout:       durationEnv("AGENT_TIMEOUT", DefaultAgentTimeout),
	}
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("環境変数の値が不正なため既定値を使うのだ", "key", key, "value", raw, "default", def)
		return def
	}
	return d
}

func intEnv(key string, def int) int {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("環境変数の値が不正なため既定値を使うのだ", "key", key, "value", raw, "default", def)
		return def
	}
	return n
}

func floatPtrEnv(key string) *float32 {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		slog.Warn("環境変数の値が不正なため無視するのだ", "key", key, "value", raw)
		return nil
	}
	v := float32(f)
	return &v
}
