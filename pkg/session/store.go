// Package session は refine のためにパイプライン出力を TTL 付きで保持します。
package session

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	// DefaultTTL は最終アクセスからセッションが失効するまでの時間です。
	DefaultTTL = 30 * time.Minute
	// DefaultCleanupInterval はバックグラウンドの掃除間隔です。
	DefaultCleanupInterval = 5 * time.Minute
)

// Store はセッションの保存先の契約です。
type Store[T any] interface {
	// Get はエントリを返し、最終アクセス時刻を更新します。失効済みなら false を返します。
	Get(id string) (T, bool)
	// Put はエントリを保存（上書き）し、最終アクセス時刻を now にします。
	Put(id string, value T)
	// Sweep は now 時点で失効しているエントリを削除し、削除件数を返します。
	Sweep(now time.Time) int
}

var _ Store[string] = (*CacheStore[string])(nil)

type entry[T any] struct {
	value      T
	lastAccess time.Time
}

// CacheStore は go-cache を使った Store の実装です。
// 失効判定は注入された時計で行い、go-cache の janitor が実時間でも掃除します。
type CacheStore[T any] struct {
	mu    sync.Mutex
	items *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// Option は CacheStore の設定です。
type Option func(*options)

type options struct {
	cleanupInterval time.Duration
	now             func() time.Time
}

// WithCleanupInterval は janitor の実行間隔を指定します。0 以下なら janitor を起動しません。
func WithCleanupInterval(d time.Duration) Option {
	return func(o *options) { o.cleanupInterval = d }
}

// WithClock は失効判定に使う時計を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewCacheStore は ttl を持つ CacheStore を作成します。ttl が 0 以下なら DefaultTTL を使います。
func NewCacheStore[T any](ttl time.Duration, opts ...Option) *CacheStore[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	o := options{cleanupInterval: DefaultCleanupInterval, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	cleanup := o.cleanupInterval
	if cleanup <= 0 {
		cleanup = -1
	}
	return &CacheStore[T]{
		items: cache.New(ttl, cleanup),
		ttl:   ttl,
		now:   o.now,
	}
}

func (s *CacheStore[T]) Get(id string) (T, bool) {
	var zero T

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.items.Get(id)
	if !ok {
		return zero, false
	}
	e := raw.(*entry[T])

	now := s.now()
	if s.expired(e, now) {
		s.items.Delete(id)
		return zero, false
	}
	e.lastAccess = now
	s.items.Set(id, e, cache.DefaultExpiration)
	return e.value, true
}

func (s *CacheStore[T]) Put(id string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items.Set(id, &entry[T]{value: value, lastAccess: s.now()}, cache.DefaultExpiration)
}

func (s *CacheStore[T]) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, item := range s.items.Items() {
		e := item.Object.(*entry[T])
		if s.expired(e, now) {
			s.items.Delete(id)
			removed++
		}
	}
	return removed
}

// Len は保持しているエントリ数です。janitor が未掃除の失効エントリを含む場合があります。
func (s *CacheStore[T]) Len() int {
	return s.items.ItemCount()
}

func (s *CacheStore[T]) expired(e *entry[T], now time.Time) bool {
	return now.Sub(e.lastAccess) > s.ttl
}
