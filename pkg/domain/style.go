package domain

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultAudioStyle は audio_style が未定義のプリセットに使う値です。
const defaultAudioStyle = "Ambient, style-appropriate."

//go:embed presets.yaml
var embeddedPresets []byte

// StylePreset は演出スタイルのプリセット定義です。
type StylePreset struct {
	ID         string `yaml:"id" json:"-"`
	Name       string `yaml:"name" json:"name"`
	Camera     string `yaml:"camera" json:"camera"`
	Subject    string `yaml:"subject" json:"subject"`
	Pacing     string `yaml:"pacing" json:"pacing"`
	Mood       string `yaml:"mood" json:"mood"`
	AudioStyle string `yaml:"audio_style" json:"audio_style"`
}

// StyleCatalog は定義順を保持したプリセットの集合です。
type StyleCatalog struct {
	Default string        `yaml:"default"`
	Presets []StylePreset `yaml:"presets"`

	index map[string]int
}

// LoadStyleCatalog は YAML からカタログを読み込み、検証します。
func LoadStyleCatalog(data []byte) (*StyleCatalog, error) {
	var c StyleCatalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("スタイルプリセットの解析に失敗しました: %w", err)
	}
	if len(c.Presets) == 0 {
		return nil, fmt.Errorf("スタイルプリセットが 1 件も定義されていません")
	}

	c.index = make(map[string]int, len(c.Presets))
	for i := range c.Presets {
		p := &c.Presets[i]
		if p.ID == "" {
			return nil, fmt.Errorf("%d 番目のスタイルプリセットに id がありません", i)
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, fmt.Errorf("スタイルプリセット '%s' が重複しています", p.ID)
		}
		if p.AudioStyle == "" {
			p.AudioStyle = defaultAudioStyle
		}
		c.index[p.ID] = i
	}

	if c.Default == "" {
		c.Default = c.Presets[0].ID
	}
	if _, ok := c.index[c.Default]; !ok {
		return nil, fmt.Errorf("デフォルトのスタイルプリセット '%s' が定義されていません", c.Default)
	}
	return &c, nil
}

// LoadStyleCatalogFile は path が空なら埋め込みのカタログを、そうでなければファイルを読み込みます。
func LoadStyleCatalogFile(path string) (*StyleCatalog, error) {
	if path == "" {
		return DefaultStyleCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("スタイルプリセットファイル '%s' の読み込みに失敗しました: %w", path, err)
	}
	return LoadStyleCatalog(data)
}

// DefaultStyleCatalog は埋め込みの presets.yaml から構築したカタログを返します。
func DefaultStyleCatalog() *StyleCatalog {
	c, err := LoadStyleCatalog(embeddedPresets)
	if err != nil {
		panic(fmt.Sprintf("embedded presets.yaml is invalid: %v", err))
	}
	return c
}

// Lookup は ID に対応するプリセットを返します。
func (c *StyleCatalog) Lookup(id string) (StylePreset, bool) {
	i, ok := c.index[id]
	if !ok {
		return StylePreset{}, false
	}
	return c.Presets[i], true
}

// Resolve は ID に対応するプリセットを返し、見つからなければデフォルトを返します。
func (c *StyleCatalog) Resolve(id string) StylePreset {
	if p, ok := c.Lookup(id); ok {
		return p
	}
	p, _ := c.Lookup(c.Default)
	return p
}

// IDs は定義順のプリセット ID 一覧です。
func (c *StyleCatalog) IDs() []string {
	ids := make([]string, len(c.Presets))
	for i, p := range c.Presets {
		ids[i] = p.ID
	}
	return ids
}

// Validate は未知のプリセット ID をクライアント入力エラーとして返します。
func (c *StyleCatalog) Validate(id string) error {
	if _, ok := c.Lookup(id); ok {
		return nil
	}
	return NewInputError("Invalid style preset. Choose from: " + strings.Join(c.IDs(), ", "))
}
