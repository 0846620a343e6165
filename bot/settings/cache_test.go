package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/onenight/onenightbot/bot/storage"
)

type fakeSource struct {
	row     *storage.SiteSettings
	getErr  error
	gets    int
	updates map[string]string
}

func (f *fakeSource) GetSettings(context.Context) (*storage.SiteSettings, error) {
	f.gets++
	return f.row, f.getErr
}

func (f *fakeSource) UpdateSetting(_ context.Context, field, value string) error {
	if f.updates == nil {
		f.updates = make(map[string]string)
	}
	f.updates[field] = value
	return nil
}

var testFallback = Values{
	SupportUsername: "@OneNightSupport",
	PaymentCard:     "2202 2026 8321 4532",
}

func newTestCache(src *fakeSource, ttl time.Duration, now *time.Time) *Cache {
	c := New(src, ttl, testFallback)
	c.now = func() time.Time { return *now }
	return c
}

func TestGetServesFromCacheWhileFresh(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{row: &storage.SiteSettings{
		SupportUsername: "@fresh",
		PaymentCard:     "4111 1111 1111 1111",
	}}
	c := newTestCache(src, 5*time.Minute, &now)

	v := c.Get(context.Background())
	if v.SupportUsername != "@fresh" {
		t.Fatalf("support = %q", v.SupportUsername)
	}

	now = now.Add(4 * time.Minute)
	c.Get(context.Background())
	if src.gets != 1 {
		t.Fatalf("gets = %d, expected cached read", src.gets)
	}

	now = now.Add(2 * time.Minute)
	c.Get(context.Background())
	if src.gets != 2 {
		t.Fatalf("gets = %d, expected refetch after TTL", src.gets)
	}
}

func TestGetFallsBackOnError(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{getErr: errors.New("db down")}
	c := newTestCache(src, 5*time.Minute, &now)

	v := c.Get(context.Background())
	if v != testFallback {
		t.Fatalf("values = %+v, want fallback", v)
	}

	// The failure is cached too; the store is not re-probed per render.
	c.Get(context.Background())
	if src.gets != 1 {
		t.Fatalf("gets = %d", src.gets)
	}
}

func TestGetMergesRowOverFallback(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{row: &storage.SiteSettings{PaymentCard: "4111 1111 1111 1111"}}
	c := newTestCache(src, time.Minute, &now)

	v := c.Get(context.Background())
	if v.PaymentCard != "4111 1111 1111 1111" {
		t.Fatalf("card = %q", v.PaymentCard)
	}
	if v.SupportUsername != testFallback.SupportUsername {
		t.Fatalf("empty row field should keep fallback, support = %q", v.SupportUsername)
	}
}

func TestSetInvalidatesCache(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{row: &storage.SiteSettings{PaymentCard: "old"}}
	c := newTestCache(src, time.Hour, &now)

	c.Get(context.Background())
	if err := c.Set(context.Background(), storage.SettingPaymentCard, "new"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if src.updates[storage.SettingPaymentCard] != "new" {
		t.Fatalf("updates = %v", src.updates)
	}

	src.row = &storage.SiteSettings{PaymentCard: "new"}
	v := c.Get(context.Background())
	if v.PaymentCard != "new" {
		t.Fatalf("card after set = %q, cache not invalidated", v.PaymentCard)
	}
	if src.gets != 2 {
		t.Fatalf("gets = %d", src.gets)
	}
}
