// Package prompts は各エージェントの指示文を go:embed のテンプレートから組み立てます。
package prompts

import (
	"fmt"
	"strings"
	"text/template"
)

// PromptBuilder は、AIプロンプトを構築する契約です。
type PromptBuilder interface {
	Build(mode string, data TemplateData) (string, error)
}

// TextPromptBuilder はモードごとのテンプレートを保持します。
type TextPromptBuilder struct {
	templates map[string]*template.Template
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

// NewTextPromptBuilder は共通ブロックと全モードのテンプレートを解析して TextPromptBuilder を初期化します。
func NewTextPromptBuilder() (*TextPromptBuilder, error) {
	if sharedBlocks == "" {
		return nil, fmt.Errorf("共通ブロック (go:embed) の読み込みに失敗しました: 内容が空です")
	}
	base, err := template.New("shared").Funcs(funcs).Parse(sharedBlocks)
	if err != nil {
		return nil, fmt.Errorf("共通ブロックの解析に失敗: %w", err)
	}

	parsedTemplates := make(map[string]*template.Template, len(allTemplates))
	for mode, content := range allTemplates {
		if content == "" {
			return nil, fmt.Errorf("プロンプトテンプレート '%s' (go:embed) の読み込みに失敗しました: 内容が空です", mode)
		}

		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("共通ブロックの複製に失敗: %w", err)
		}
		tmpl, err := clone.New(mode).Option("missingkey=error").Parse(content)
		if err != nil {
			return nil, fmt.Errorf("プロンプト '%s' の解析に失敗: %w", mode, err)
		}
		parsedTemplates[mode] = tmpl
	}

	return &TextPromptBuilder{
		templates: parsedTemplates,
	}, nil
}

// Build は、要求されたモードに応じて適切なテンプレートを実行します。
func (b *TextPromptBuilder) Build(mode string, data TemplateData) (string, error) {
	tmpl, ok := b.templates[mode]
	if !ok {
		return "", fmt.Errorf("不明なモードです: '%s'", mode)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("プロンプトテンプレートの実行に失敗しました: %w", err)
	}

	return sb.String(), nil
}

// Modes は登録されている全モード名を返します。
func Modes() []string {
	modes := make([]string, 0, len(allTemplates))
	for mode := range allTemplates {
		modes = append(modes, mode)
	}
	return modes
}
