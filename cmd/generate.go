package cmd

import (
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/go-motion-director/internal/builder"
	"github.com/shouni/go-motion-director/pkg/director"
	"github.com/shouni/go-motion-director/pkg/domain"
)

// generateOptions は generate サブコマンドのフラグなのだ。
type generateOptions struct {
	Images            []string
	Video             string
	Style             string
	Note              string
	Pipeline          string
	Orientation       string
	KeepOriginalSound bool
}

var genOpts generateOptions

// generateCmd は、ローカルの画像からモーションプロンプトを生成するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "ローカルの画像からモーションプロンプトを生成するのだ。",
	Long: `画像ごとにシーンを計画し、シーンごとのプロンプトを並列に書いて、編集者がまとめるのだ。
結果は JSON で標準出力に出すのだよ。`,
	RunE: generateCommand,
}

func init() {
	generateCmd.Flags().StringSliceVarP(&genOpts.Images, "image", "i", nil, "入力画像のパスなのだ（複数指定できるのだ）。")
	generateCmd.Flags().StringVar(&genOpts.Video, "video", "", "Motion Control の参照動画のパスなのだ。")
	generateCmd.Flags().StringVarP(&genOpts.Style, "style", "s", "", "スタイルプリセット ID なのだ。")
	generateCmd.Flags().StringVar(&genOpts.Note, "note", "", "演出への追加メモなのだ。")
	generateCmd.Flags().StringVarP(&genOpts.Pipeline, "pipeline", "p", string(domain.PipelineProI2V), "パイプライン種別（pro-i2v, motion-control）なのだ。")
	generateCmd.Flags().StringVar(&genOpts.Orientation, "orientation", "", "Motion Control のキャラクター向き（image, video）なのだ。")
	generateCmd.Flags().BoolVar(&genOpts.KeepOriginalSound, "keep-sound", true, "参照動画の音声を残すかどうかなのだ。")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	images := make([]domain.MediaPart, 0, len(genOpts.Images))
	for _, path := range genOpts.Images {
		part, err := readMedia(path, "image/jpeg")
		if err != nil {
			return err
		}
		images = append(images, part)
	}
	req := director.GenerateRequest{
		Images:               images,
		StylePreset:          genOpts.Style,
		UserNote:             genOpts.Note,
		PipelineType:         genOpts.Pipeline,
		CharacterOrientation: genOpts.Orientation,
		KeepOriginalSound:    genOpts.KeepOriginalSound,
	}
	if genOpts.Video != "" {
		video, err := readMedia(genOpts.Video, "video/mp4")
		if err != nil {
			return err
		}
		req.ReferenceVideo = &video
	}

	cfg := loadConfig()
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY か --api-key を指定してほしいのだ")
	}
	appCtx, err := builder.BuildAppContext(cfg)
	if err != nil {
		return err
	}
	d, err := builder.BuildDirector(appCtx)
	if err != nil {
		return err
	}

	slog.Info("Motion Director を起動するのだ！", "pipeline", req.PipelineType, "images", len(images), "model", cfg.GeminiModel)
	start := time.Now()
	res, err := d.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}
	slog.Info("すべての生成工程が完了したのだ！", "session_id", res.SessionID, "duration", time.Since(start).Round(time.Millisecond))

	out, err := domain.IndentJSON(res)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}

// readMedia はファイルを読み込み、拡張子から MIME タイプを推定するのだ。
func readMedia(path, fallback string) (domain.MediaPart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.MediaPart{}, fmt.Errorf("ファイル '%s' の読み込みに失敗したのだ: %w", path, err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = fallback
	}
	return domain.MediaPart{Data: data, MIMEType: mimeType}, nil
}
