// Package extract は LLM の自由記述テキストに埋め込まれた JSON を取り出します。
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const excerptLen = 500

var (
	leadingFence  = regexp.MustCompile("^```(?:json)?\\s*\\n?")
	trailingFence = regexp.MustCompile("\\n?```\\s*$")
)

// Strategy はテキストから JSON 値の取り出しを 1 通り試みます。
// 見つからない場合は ok に false を返します。
type Strategy func(text string) (value any, ok bool)

// ParseError はどの戦略でも JSON を取り出せなかったことを示します。
type ParseError struct {
	Excerpt string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse JSON from agent response: %s", e.Excerpt)
}

// Extractor は戦略を順に試し、最初に成功した結果を返します。
type Extractor struct {
	strategies []Strategy
}

// New は指定した戦略で Extractor を作成します。戦略が空なら Default と同じ構成になります。
func New(strategies ...Strategy) *Extractor {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Extractor{strategies: strategies}
}

// Default はフェンス除去 → 最外の {…} → 最外の […] の順で試す Extractor です。
func Default() *Extractor {
	return New()
}

// DefaultStrategies は既定の戦略列を返します。
func DefaultStrategies() []Strategy {
	return []Strategy{Direct, OutermostObject, OutermostArray}
}

// Extract は text から JSON のオブジェクトまたは配列を取り出します。
func (e *Extractor) Extract(text string) (any, error) {
	for _, s := range e.strategies {
		if v, ok := s(text); ok {
			return v, nil
		}
	}
	return nil, &ParseError{Excerpt: truncate(text, excerptLen)}
}

// Object は Extract の結果がオブジェクトである場合だけ返します。
func (e *Extractor) Object(text string) (map[string]any, error) {
	v, err := e.Extract(text)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("JSON オブジェクトを期待しましたが %T でした", v)
	}
	return obj, nil
}

// Direct はコードフェンスを 1 組だけ取り除いてから全体をパースします。
func Direct(text string) (any, bool) {
	return parse(StripFence(text))
}

// OutermostObject は最初の '{' から最後の '}' までをパースします。
func OutermostObject(text string) (any, bool) {
	return parseSpan(StripFence(text), "{", "}")
}

// OutermostArray は最初の '[' から最後の ']' までをパースします。
func OutermostArray(text string) (any, bool) {
	return parseSpan(StripFence(text), "[", "]")
}

// StripFence は前後のマークダウンのコードフェンスを取り除きます。
func StripFence(text string) string {
	s := strings.TrimSpace(text)
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func parseSpan(s, open, close string) (any, bool) {
	first := strings.Index(s, open)
	last := strings.LastIndex(s, close)
	if first == -1 || last <= first {
		return nil, false
	}
	return parse(s[first : last+1])
}

// parse はオブジェクトか配列のときだけ成功とみなします。
func parse(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case map[string]any, []any:
		return v, true
	default:
		return nil, false
	}
}

// truncate は maxLen バイト以内で、マルチバイト文字を分断しない位置で切り詰めます。
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
