package domain

import "errors"

var (
	// ErrSessionNotFound はセッションが存在しないか、TTL で失効していることを示します。
	ErrSessionNotFound = errors.New("motion session not found or expired")
	// ErrInvalidPlan は Config ステージの応答に scenes が含まれていないことを示します。
	ErrInvalidPlan = errors.New("invalid plan format")
)

// InputError はパイプライン実行前に弾かれるクライアント入力エラーです。
// この種別のエラーではセッションは作成されず、状態も変化しません。
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

// NewInputError は InputError を生成します。
func NewInputError(msg string) *InputError {
	return &InputError{Msg: msg}
}
