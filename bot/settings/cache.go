// Package settings serves the storefront contact settings through a small
// read-through cache, so panel renders do not hit the database on every
// update.
package settings

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/onenight/onenightbot/bot/storage"
	"github.com/onenight/onenightbot/core/logger"
)

// Values is the resolved settings snapshot handed to handlers.
type Values struct {
	SupportUsername string
	PaymentCard     string
}

// Source is the storage surface the cache reads and writes.
type Source interface {
	GetSettings(ctx context.Context) (*storage.SiteSettings, error)
	UpdateSetting(ctx context.Context, field, value string) error
}

// Cache is a TTL read-through cache over the settings row. Writes invalidate
// immediately so admins see their edit on the next render.
type Cache struct {
	source   Source
	ttl      time.Duration
	fallback Values

	mu      sync.Mutex
	cached  *Values
	fetched time.Time
	now     func() time.Time
}

// New creates a cache with the given TTL and fallback values. The fallback
// answers when the row is missing or the database is unreachable.
func New(source Source, ttl time.Duration, fallback Values) *Cache {
	return &Cache{
		source:   source,
		ttl:      ttl,
		fallback: fallback,
		now:      time.Now,
	}
}

// Get returns the current settings, serving from cache while fresh.
func (c *Cache) Get(ctx context.Context) Values {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.cached != nil && now.Sub(c.fetched) < c.ttl {
		return *c.cached
	}

	row, err := c.source.GetSettings(ctx)
	if err != nil {
		logger.Warn(ctx, "settings", "settings.load",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		// Cache the fallback too; a dead database should not be
		// re-probed on every panel render.
		v := c.fallback
		c.cached, c.fetched = &v, now
		return v
	}

	v := c.fallback
	if row != nil {
		if row.SupportUsername != "" {
			v.SupportUsername = row.SupportUsername
		}
		if row.PaymentCard != "" {
			v.PaymentCard = row.PaymentCard
		}
	}
	c.cached, c.fetched = &v, now
	return v
}

// Set writes one settings field and drops the cached snapshot.
func (c *Cache) Set(ctx context.Context, field, value string) error {
	if err := c.source.UpdateSetting(ctx, field, value); err != nil {
		return err
	}
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
	return nil
}
