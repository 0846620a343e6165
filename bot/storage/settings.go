package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetSettings loads the singleton settings row. Returns nil when the row has
// never been seeded; callers fall back to configured defaults.
func (s *Store) GetSettings(ctx context.Context) (*SiteSettings, error) {
	var out SiteSettings
	err := s.db.GetContext(ctx, &out, `SELECT * FROM site_settings WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &out, nil
}

// UpdateSetting writes one settings column. Only the known column names are
// accepted; anything else is a programming error.
func (s *Store) UpdateSetting(ctx context.Context, field, value string) error {
	var query string
	switch field {
	case SettingPaymentCard:
		query = `UPDATE site_settings SET payment_card = $1, updated_at = now() WHERE id = 1`
	case SettingSupportUsername:
		query = `UPDATE site_settings SET support_username = $1, updated_at = now() WHERE id = 1`
	default:
		return fmt.Errorf("update settings: unknown field %q", field)
	}
	if _, err := s.db.ExecContext(ctx, query, value); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}
