package scheduler

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

type artifact struct {
	Index    int
	Fallback bool
}

func fallback(i int) artifact { return artifact{Index: i, Fallback: true} }

func TestFanOut_EveryFailureSubset(t *testing.T) {
	for n := 0; n <= 4; n++ {
		for mask := 0; mask < 1<<n; mask++ {
			failing := func(i int) bool { return mask&(1<<i) != 0 }

			name := fmt.Sprintf("N=%d/F=%0*b", n, n, mask)
			t.Run(name, func(t *testing.T) {
				task := func(_ context.Context, i int) (artifact, error) {
					// 完了順をばらつかせる
					time.Sleep(time.Duration(n-i) * time.Millisecond)
					if failing(i) {
						return artifact{}, errors.New("boom")
					}
					return artifact{Index: i}, nil
				}

				got, sum := FanOut(context.Background(), Options{}, n, task, fallback)

				if len(got) != n {
					t.Fatalf("結果の件数: %d", len(got))
				}
				var wantFailed []int
				for i := 0; i < n; i++ {
					want := artifact{Index: i}
					if failing(i) {
						want = fallback(i)
						wantFailed = append(wantFailed, i)
					}
					if got[i] != want {
						t.Errorf("index %d: 期待 %+v, 実際 %+v", i, want, got[i])
					}
				}
				if sum.Total != n || sum.Succeeded != n-len(wantFailed) || !reflect.DeepEqual(sum.Failed, wantFailed) {
					t.Errorf("集計が違います: %+v", sum)
				}
			})
		}
	}
}

func TestFanOut_PanicIsAbsorbed(t *testing.T) {
	task := func(_ context.Context, i int) (artifact, error) {
		if i == 1 {
			panic("writer exploded")
		}
		return artifact{Index: i}, nil
	}
	got, sum := FanOut(context.Background(), Options{}, 3, task, fallback)
	if !got[1].Fallback || got[0].Fallback || got[2].Fallback {
		t.Errorf("panic したタスクだけがフォールバックになるべきです: %+v", got)
	}
	if sum.Succeeded != 2 {
		t.Errorf("成功数: %d", sum.Succeeded)
	}
}

func TestFanOut_NoEarlyCancellation(t *testing.T) {
	var finished atomic.Int32
	task := func(ctx context.Context, i int) (artifact, error) {
		if i == 0 {
			return artifact{}, errors.New("fails fast")
		}
		select {
		case <-time.After(20 * time.Millisecond):
		case <-ctx.Done():
			return artifact{}, ctx.Err()
		}
		finished.Add(1)
		return artifact{Index: i}, nil
	}

	got, _ := FanOut(context.Background(), Options{}, 4, task, fallback)
	if finished.Load() != 3 {
		t.Errorf("他のタスクが取り消されました: 完了 %d 件", finished.Load())
	}
	for i := 1; i < 4; i++ {
		if got[i].Fallback {
			t.Errorf("index %d がフォールバックになっています", i)
		}
	}
}

func TestFanOut_ConcurrencyLimit(t *testing.T) {
	var running, peak atomic.Int32
	task := func(_ context.Context, i int) (artifact, error) {
		cur := running.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return artifact{Index: i}, nil
	}

	FanOut(context.Background(), Options{Concurrency: 2}, 6, task, fallback)
	if peak.Load() > 2 {
		t.Errorf("同時実行数の上限を超えました: %d", peak.Load())
	}
}

func TestNewLimiter(t *testing.T) {
	if NewLimiter(0, 2) != nil {
		t.Error("interval 0 は nil を返すべきです")
	}
	l := NewLimiter(time.Second, 0)
	if l == nil || l.Burst() != 1 {
		t.Errorf("burst は 1 以上に補正されるべきです: %v", l)
	}
}
