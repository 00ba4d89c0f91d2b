package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"sealbin/pkg/domain"
)

// LRU keeps recently read live pastes in memory so repeated GETs skip the
// database. Entries carry their own expiry; a zero exp means the paste
// never expires.
type LRU struct {
	c  *lru.Cache[string, item]
	mu sync.Mutex
}
type item struct {
	paste *domain.Paste
	exp   time.Time
}

func NewLRU(size int) (*LRU, error) {
	if size <= 0 {
		return nil, errors.New("cache size must be positive")
	}
	if size > 100000 {
		return nil, errors.New("cache size too large")
	}
	c, err := lru.New[string, item](size)
	if err != nil {
		return nil, err
	}
	return &LRU{c: c}, nil
}
func (l *LRU) Get(ctx context.Context, id string) *domain.Paste {
	select {
	case <-ctx.Done():
		return nil
	default:
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	it, ok := l.c.Get(id)
	if !ok {
		return nil
	}
	if !it.exp.IsZero() && time.Now().After(it.exp) {
		l.c.Remove(id)
		return nil
	}
	return it.paste
}
func (l *LRU) Set(ctx context.Context, p *domain.Paste) {
	var exp time.Time
	if p.ExpiresAt != nil {
		exp = time.Unix(*p.ExpiresAt, 0)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.c.Add(p.ID, item{paste: p, exp: exp})
}
func (l *LRU) Delete(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.c.Remove(id)
}
func (l *LRU) Purge() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.c.Purge()
}
