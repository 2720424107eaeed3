package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiConfig は GeminiInvoker の設定です。
type GeminiConfig struct {
	Model         string
	Temperature   *float32
	DefaultAPIKey string
	// Timeout は 1 回の呼び出しの上限です。0 なら制限しません。
	Timeout time.Duration
}

// GeminiInvoker は genai の GenerateContent でエージェントを実行します。
type GeminiInvoker struct {
	pool *ClientPool
	cfg  GeminiConfig
}

// NewGeminiInvoker は GeminiInvoker を作成します。
func NewGeminiInvoker(pool *ClientPool, cfg GeminiConfig) (*GeminiInvoker, error) {
	if pool == nil {
		return nil, fmt.Errorf("ClientPool は必須です")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("モデル名は必須です")
	}
	return &GeminiInvoker{pool: pool, cfg: cfg}, nil
}

// Invoke は指示文をシステムインストラクションとして、Parts をユーザーターンとして送信します。
func (g *GeminiInvoker) Invoke(ctx context.Context, req Request) (string, error) {
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = g.cfg.DefaultAPIKey
	}
	client, err := g.pool.Client(ctx, apiKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", req.Name, err)
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.Instruction)},
		},
		Temperature: g.cfg.Temperature,
	}
	contents := []*genai.Content{genai.NewContentFromParts(toGenAIParts(req.Parts), genai.RoleUser)}

	logger := slog.With("agent", req.Name, "model", g.cfg.Model)
	startTime := time.Now()

	resp, err := client.Models.GenerateContent(ctx, g.cfg.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("%s: Gemini API の呼び出しに失敗しました: %w", req.Name, err)
	}

	text := responseText(resp)
	logger.Info("Agent invocation completed",
		"duration", time.Since(startTime).Round(time.Millisecond),
		"chars", len(text))
	if text == "" {
		return "", fmt.Errorf("%s: %w", req.Name, ErrEmptyResponse)
	}
	return text, nil
}

func toGenAIParts(parts []Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if len(p.Data) > 0 {
			out = append(out, genai.NewPartFromBytes(p.Data, p.MIMEType))
			continue
		}
		out = append(out, genai.NewPartFromText(p.Text))
	}
	return out
}

// responseText は最初の候補に含まれるテキストを連結します。思考パートは除きます。
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range c.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
