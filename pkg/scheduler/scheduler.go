// Package scheduler は独立したシーン単位のタスクを並列に実行し、失敗をフォールバックで吸収します。
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Task は 1 シーン分の処理です。
type Task[T any] func(ctx context.Context, index int) (T, error)

// Options はファンアウトの実行制御です。ゼロ値は無制限を意味します。
type Options struct {
	// Concurrency は同時実行数の上限です。
	Concurrency int
	// Limiter はタスク開始のペースを制御します。
	Limiter *rate.Limiter
	// Logger は進捗ログの出力先です。nil の場合は slog.Default を使います。
	Logger *slog.Logger
}

// NewLimiter は interval ごとに burst 件まで開始を許すリミッターを返します。interval が 0 以下なら nil です。
func NewLimiter(interval time.Duration, burst int) *rate.Limiter {
	if interval <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(interval), burst)
}

// Summary はファンアウトの集計結果です。
type Summary struct {
	Succeeded int
	Total     int
	// Failed はフォールバックに置き換えた index の昇順リストです。
	Failed []int
}

// FanOut は n 件のタスクをすべて並列に起動し、全件の完了を待ちます。
//
// あるタスクの失敗が他のタスクを止めることはありません。エラーまたは panic で終わったタスクの位置には
// fallback(index) を置きます。結果は完了順によらず index 順に並びます。
func FanOut[T any](ctx context.Context, opts Options, n int, task Task[T], fallback func(index int) T) ([]T, Summary) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]T, n)
	errs := make([]error, n)

	// WithContext は使わない。1 件の失敗で残りを取り消さないため。
	var eg errgroup.Group
	if opts.Concurrency > 0 {
		eg.SetLimit(opts.Concurrency)
	}

	for i := 0; i < n; i++ {
		eg.Go(func() error {
			results[i], errs[i] = runOne(ctx, opts.Limiter, i, task)
			return nil
		})
	}
	_ = eg.Wait()

	summary := Summary{Total: n}
	for i, err := range errs {
		if err != nil {
			logger.Warn("Scene task failed, using fallback", "scene_index", i, "error", err)
			results[i] = fallback(i)
			summary.Failed = append(summary.Failed, i)
			continue
		}
		summary.Succeeded++
	}

	logger.Info("Scene fan-out completed",
		"succeeded", fmt.Sprintf("%d/%d", summary.Succeeded, summary.Total),
		"failed", summary.Failed)
	return results, summary
}

func runOne[T any](ctx context.Context, limiter *rate.Limiter, index int, task Task[T]) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scene %d panicked: %v", index, r)
		}
	}()

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return result, fmt.Errorf("scene %d rate limit wait: %w", index, err)
		}
	}
	return task(ctx, index)
}
