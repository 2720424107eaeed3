package domain

import "fmt"

// PipelineType は Motion Director のパイプライン種別です。
type PipelineType string

const (
	// PipelineProI2V は Config → Writers → Editor の 3 ステージ構成です。
	PipelineProI2V PipelineType = "pro-i2v"
	// PipelineMotionControl は VideoAnalyzer を先頭に追加した 4 ステージ構成です。
	// モーションは参照動画が決めるため、Writer は背景や環境などのコンテキストのみを書きます。
	PipelineMotionControl PipelineType = "motion-control"
)

// MaxScenes は 1 回の実行で扱えるシーン（入力画像）の上限です。
const MaxScenes = 10

// ParsePipelineType は文字列をパイプライン種別に変換します。空文字は Pro-I2V として扱います。
func ParsePipelineType(s string) (PipelineType, error) {
	switch PipelineType(s) {
	case "", PipelineProI2V:
		return PipelineProI2V, nil
	case PipelineMotionControl:
		return PipelineMotionControl, nil
	default:
		return "", NewInputError(fmt.Sprintf("Invalid pipeline_type. Choose from: %s, %s", PipelineProI2V, PipelineMotionControl))
	}
}

// Orientation は Motion Control におけるキャラクターの向きの基準です。
type Orientation string

const (
	OrientationImage Orientation = "image"
	OrientationVideo Orientation = "video"
)

// Valid は向きが image / video のいずれかであるかを返します。
func (o Orientation) Valid() bool {
	return o == OrientationImage || o == OrientationVideo
}

// MediaPart はエージェントに渡すバイナリ入力（画像または動画）です。
type MediaPart struct {
	Data     []byte
	MIMEType string
}
