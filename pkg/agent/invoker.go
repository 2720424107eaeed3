// Package agent は「指示文と入力コンテンツを渡してテキストを得る」LLM 呼び出しの境界です。
package agent

import (
	"context"
	"errors"

	"github.com/shouni/go-motion-director/pkg/domain"
)

// ErrEmptyResponse はモデルがテキストを返さなかったことを示します。
// 空文字をパースさせず、独立した失敗として扱います。
var ErrEmptyResponse = errors.New("agent returned no response")

// Part はエージェントへの入力の 1 要素です。Data が空ならテキストとして扱います。
type Part struct {
	Text     string
	Data     []byte
	MIMEType string
}

// TextPart はテキストの Part を返します。
func TextPart(text string) Part {
	return Part{Text: text}
}

// MediaPart は画像や動画の Part を返します。
func MediaPart(m domain.MediaPart) Part {
	return Part{Data: m.Data, MIMEType: m.MIMEType}
}

// Request は 1 回のエージェント実行です。呼び出し間で会話状態は保持しません。
type Request struct {
	// Name はログとエラーに使う識別子です（例: "config_agent", "motion_writer_2"）。
	Name        string
	Instruction string
	Parts       []Part
	// APIKey が空の場合は実装側の既定キーを使います。
	APIKey string
}

// Invoker はエージェントを実行し、最終応答のテキストを連結して返します。
type Invoker interface {
	Invoke(ctx context.Context, req Request) (string, error)
}

// InvokerFunc は関数を Invoker として扱うためのアダプタです。
type InvokerFunc func(ctx context.Context, req Request) (string, error)

func (f InvokerFunc) Invoke(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
