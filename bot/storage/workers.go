package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
)

// GetOrCreateWorker returns the worker row for the Telegram user, inserting
// one with a fresh referral code on first contact.
func (s *Store) GetOrCreateWorker(ctx context.Context, id Identity) (*Worker, error) {
	var w Worker
	err := s.db.GetContext(ctx, &w,
		`SELECT * FROM workers WHERE telegram_id = $1`, id.TelegramID)
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get worker: %w", err)
	}

	code, err := newReferralCode()
	if err != nil {
		return nil, err
	}
	err = s.db.GetContext(ctx, &w,
		`INSERT INTO workers (telegram_id, username, first_name, last_name, referral_code)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5)
		 ON CONFLICT (telegram_id) DO UPDATE SET username = EXCLUDED.username
		 RETURNING *`,
		id.TelegramID, id.Username, id.FirstName, id.LastName, code)
	if err != nil {
		return nil, fmt.Errorf("create worker: %w", err)
	}
	return &w, nil
}

// TouchWorkerActivity refreshes last_activity and the mutable identity
// fields. Meant to run off the hot path.
func (s *Store) TouchWorkerActivity(ctx context.Context, id Identity) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE workers
		 SET last_activity = now(), username = NULLIF($2, ''), first_name = NULLIF($3, '')
		 WHERE telegram_id = $1`,
		id.TelegramID, id.Username, id.FirstName)
	if err != nil {
		return fmt.Errorf("touch worker: %w", err)
	}
	return nil
}

// ListWorkers returns the most recently registered workers.
func (s *Store) ListWorkers(ctx context.Context, limit int) ([]Worker, error) {
	var out []Worker
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM workers ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	return out, nil
}

// CountWorkers reports the total number of registered workers.
func (s *Store) CountWorkers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT count(*) FROM workers`); err != nil {
		return 0, fmt.Errorf("count workers: %w", err)
	}
	return n, nil
}

// newReferralCode produces an 8-character hex code for deep links.
func newReferralCode() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("referral code: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}
