package svc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"sealbin/cfg"
	"sealbin/metrics"
	"sealbin/pkg/domain"
	"sealbin/svc/auth"
	"sealbin/svc/cache"
	"sealbin/svc/db"
	"sealbin/svc/util"
)

// Paste owns the paste lifecycle: creation validation, liveness-filtered
// reads and the two deletion paths. The durable store is authoritative;
// the LRU and optional Redis tiers only shortcut reads.
type Paste struct {
	db  *db.SQLite
	lru *cache.LRU
	rdb *db.Redis
	cfg *cfg.Cfg
	sf  singleflight.Group
}

func NewPaste(sqlDB *db.SQLite, lru *cache.LRU, rdb *db.Redis, c *cfg.Cfg) *Paste {
	if sqlDB == nil || lru == nil || c == nil {
		panic("paste service: nil dependency (sqlDB, lru or cfg)")
	}
	return &Paste{
		db:  sqlDB,
		lru: lru,
		rdb: rdb,
		cfg: c,
	}
}

// Create validates in a fixed order (first failure wins), then mints the id
// and the deletion secret. The plaintext secret is returned to the caller
// exactly once and never persisted; only its SHA-256 hash is stored.
func (p *Paste) Create(ctx context.Context, params domain.CreateParams) (*domain.Paste, string, error) {
	now := time.Now().Unix()
	if p.cfg.ExpiryRequired && params.ExpiresAt == nil {
		return nil, "", domain.ErrExpiryRequired
	}
	if params.ExpiresAt != nil && *params.ExpiresAt > now+int64(p.cfg.MaxExpiry.Seconds()) {
		return nil, "", domain.ErrExpiryTooFar
	}
	if params.EncryptedTitle == "" || params.EncryptedContent == "" {
		return nil, "", domain.ErrEmptyPaste
	}
	if int64(len(params.EncryptedTitle))+int64(len(params.EncryptedContent)) > p.cfg.MaxPasteSize {
		return nil, "", domain.ErrPasteTooLarge
	}
	id, err := util.GenPasteID(func(id string) (bool, error) {
		return p.db.PasteExists(ctx, id)
	})
	if err != nil {
		return nil, "", errors.Wrap(err, "gen id")
	}
	deletionKey := uuid.New().String()
	paste := &domain.Paste{
		ID:                  id,
		EncryptedTitle:      params.EncryptedTitle,
		EncryptedContent:    params.EncryptedContent,
		EncryptedSyntaxType: params.EncryptedSyntaxType,
		DeletionKeyHash:     auth.HashDeletionKey(deletionKey),
		ExpiresAt:           params.ExpiresAt,
		CreatedAt:           now,
	}
	if err := p.db.CreatePaste(ctx, paste); err != nil {
		return nil, "", errors.Wrap(err, "create paste")
	}
	p.lru.Set(ctx, paste)
	if p.rdb != nil {
		if err := p.rdb.CachePaste(ctx, paste); err != nil {
			util.Warn().Err(err).Str("id", id).Msg("failed to cache in Redis")
		}
	}
	metrics.PasteCreated.Inc()
	return paste, deletionKey, nil
}

// Get returns the paste only while it is live. Cache tiers re-check
// liveness themselves, so an expired-but-unswept row is never served.
func (p *Paste) Get(ctx context.Context, id string) (*domain.Paste, error) {
	now := time.Now().Unix()
	if paste := p.lru.Get(ctx, id); paste != nil {
		metrics.CacheHits.Inc()
		metrics.PasteRetrieved.Inc()
		return paste, nil
	}
	if p.rdb != nil {
		if paste, err := p.rdb.GetPaste(ctx, id); err == nil && paste != nil {
			if !paste.Live(now) {
				p.rdb.Delete(ctx, id)
				return nil, domain.ErrPasteNotFound
			}
			metrics.CacheHits.Inc()
			p.lru.Set(ctx, paste)
			metrics.PasteRetrieved.Inc()
			return paste, nil
		}
	}
	metrics.CacheMisses.Inc()
	// Concurrent misses for the same id collapse into one query.
	v, err, _ := p.sf.Do(id, func() (interface{}, error) {
		return p.db.GetPaste(ctx, id, now)
	})
	if err != nil {
		if errors.Is(err, domain.ErrPasteNotFound) {
			return nil, domain.ErrPasteNotFound
		}
		return nil, errors.Wrap(err, "get paste")
	}
	paste := v.(*domain.Paste)
	p.lru.Set(ctx, paste)
	if p.rdb != nil {
		if err := p.rdb.CachePaste(ctx, paste); err != nil {
			util.Warn().Err(err).Str("id", id).Msg("failed to cache in Redis")
		}
	}
	metrics.PasteRetrieved.Inc()
	return paste, nil
}

// DeleteBySecret hashes the presented secret and deletes in one statement.
// A wrong secret and a nonexistent id both come back as ErrPasteNotFound.
func (p *Paste) DeleteBySecret(ctx context.Context, id, deletionKey string) error {
	if err := p.db.DeletePasteBySecret(ctx, id, auth.HashDeletionKey(deletionKey)); err != nil {
		return err
	}
	p.evict(ctx, id)
	metrics.PasteDeleted.WithLabelValues("owner").Inc()
	util.Info().Str("id", id).Msg("paste deleted by owner")
	return nil
}

// DeleteByAdmin removes the paste on id match alone, no secret involved.
func (p *Paste) DeleteByAdmin(ctx context.Context, id string) error {
	if err := p.db.DeletePaste(ctx, id); err != nil {
		return err
	}
	p.evict(ctx, id)
	metrics.PasteDeleted.WithLabelValues("admin").Inc()
	util.Info().Str("id", id).Msg("paste deleted by admin")
	return nil
}
func (p *Paste) evict(ctx context.Context, id string) {
	p.lru.Delete(id)
	if p.rdb != nil {
		if err := p.rdb.Delete(ctx, id); err != nil {
			util.Warn().Err(err).Str("id", id).Msg("failed to delete from redis")
		}
	}
}

func (p *Paste) Count(ctx context.Context) (int64, error) {
	return p.db.CountPastes(ctx)
}
