package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/shouni/go-motion-director/internal/builder"
	"github.com/shouni/go-motion-director/internal/config"
	"github.com/shouni/go-motion-director/internal/server"
)

var serveAddr string

// serveCmd は HTTP サーバーを起動するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Motion Director の HTTP サーバーを起動するのだ。",
	RunE:  serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "待ち受けアドレスなのだ。空なら SERVER_ADDR を使うのだ。")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if serveAddr != "" {
		cfg.ServerAddr = serveAddr
	}
	gin.SetMode(gin.ReleaseMode)

	appCtx, err := builder.BuildAppContext(cfg)
	if err != nil {
		return err
	}
	h, err := builder.BuildHandler(appCtx)
	if err != nil {
		return err
	}
	srv := server.NewHTTPServer(cfg.ServerAddr, h)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP サーバーを起動するのだ", "addr", cfg.ServerAddr, "model", cfg.GeminiModel)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP サーバーが異常終了したのだ: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("シャットダウンするのだ")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("シャットダウンに失敗したのだ: %w", err)
	}
	return nil
}
