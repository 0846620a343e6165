package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// RegisterReferral records the user as a client of the worker owning the
// referral code. It reports false without error when the code is unknown or
// the client is already registered.
func (s *Store) RegisterReferral(ctx context.Context, code string, id Identity) (bool, error) {
	var workerID int64
	err := s.db.GetContext(ctx, &workerID,
		`SELECT id FROM workers WHERE referral_code = $1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup referral code: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO worker_clients (worker_id, telegram_id, username, first_name, last_name)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''))
		 ON CONFLICT (telegram_id) DO NOTHING`,
		workerID, id.TelegramID, id.Username, id.FirstName, id.LastName)
	if err != nil {
		return false, fmt.Errorf("register referral: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("register referral: %w", err)
	}
	return n > 0, nil
}

// ListWorkerClients returns the worker's referred clients, newest first.
func (s *Store) ListWorkerClients(ctx context.Context, workerID int64) ([]WorkerClient, error) {
	var out []WorkerClient
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM worker_clients WHERE worker_id = $1 ORDER BY created_at DESC`, workerID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return out, nil
}

// GetClient returns one client row by primary key.
func (s *Store) GetClient(ctx context.Context, clientID int64) (*WorkerClient, error) {
	var c WorkerClient
	err := s.db.GetContext(ctx, &c,
		`SELECT * FROM worker_clients WHERE id = $1`, clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &c, nil
}

// CountClients reports the total number of referred clients.
func (s *Store) CountClients(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT count(*) FROM worker_clients`); err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return n, nil
}
