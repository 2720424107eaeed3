package agent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
	"google.golang.org/genai"
)

const (
	defaultClientIdle     = 30 * time.Minute
	clientCleanupInterval = 10 * time.Minute
)

// ClientFactory は API キーから genai クライアントを生成します。
type ClientFactory func(ctx context.Context, apiKey string) (*genai.Client, error)

// NewGenAIClient は Gemini API バックエンドのクライアントを生成します。
func NewGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai クライアントの初期化に失敗しました: %w", err)
	}
	return client, nil
}

// ClientPool はリクエストごとの API キーに対応する genai クライアントを再利用します。
// 同じキーで同時に初回アクセスがあっても、クライアントの生成は 1 回だけです。
type ClientPool struct {
	clients *cache.Cache
	group   singleflight.Group
	factory ClientFactory
}

// NewClientPool は idle の間使われなかったクライアントを破棄するプールを作成します。
func NewClientPool(idle time.Duration, factory ClientFactory) *ClientPool {
	if idle <= 0 {
		idle = defaultClientIdle
	}
	if factory == nil {
		factory = NewGenAIClient
	}
	return &ClientPool{
		clients: cache.New(idle, clientCleanupInterval),
		factory: factory,
	}
}

// Client は apiKey に対応するクライアントを返します。
func (p *ClientPool) Client(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API キーが設定されていません")
	}
	key := fingerprint(apiKey)

	if c, ok := p.clients.Get(key); ok {
		p.clients.Set(key, c, cache.DefaultExpiration)
		return c.(*genai.Client), nil
	}

	v, err, _ := p.group.Do(key, func() (any, error) {
		if c, ok := p.clients.Get(key); ok {
			return c, nil
		}
		c, err := p.factory(ctx, apiKey)
		if err != nil {
			return nil, err
		}
		p.clients.Set(key, c, cache.DefaultExpiration)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*genai.Client), nil
}

// fingerprint は API キーを平文のままキャッシュのキーにしないためのハッシュです。
func fingerprint(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}
