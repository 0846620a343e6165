package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// CreateProfile inserts a listing for the worker identified by Telegram id,
// registering the worker first if needed. New listings are active and
// verified right away, matching what the storefront expects.
func (s *Store) CreateProfile(ctx context.Context, workerTelegramID int64, p NewProfile) (*Profile, error) {
	w, err := s.GetOrCreateWorker(ctx, Identity{TelegramID: workerTelegramID})
	if err != nil {
		return nil, err
	}

	var out Profile
	err = s.db.GetContext(ctx, &out,
		`INSERT INTO profiles
		   (worker_id, name, age, city, height, weight, bust, price,
		    description, services, images, is_verified, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, true, true)
		 RETURNING *`,
		w.ID, p.Name, p.Age, p.City, p.Height, p.Weight, p.Bust, p.Price,
		p.Description, pq.StringArray(p.Services), pq.StringArray(p.Images))
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return &out, nil
}

// GetProfile returns one listing by primary key, active or not.
func (s *Store) GetProfile(ctx context.Context, profileID int64) (*Profile, error) {
	var p Profile
	err := s.db.GetContext(ctx, &p,
		`SELECT * FROM profiles WHERE id = $1`, profileID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// ListWorkerProfiles returns the worker's active listings, newest first.
func (s *Store) ListWorkerProfiles(ctx context.Context, workerID int64) ([]Profile, error) {
	var out []Profile
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM profiles
		 WHERE worker_id = $1 AND is_active
		 ORDER BY created_at DESC`, workerID)
	if err != nil {
		return nil, fmt.Errorf("list worker profiles: %w", err)
	}
	return out, nil
}

// ListActiveProfiles returns the newest active listings across all workers.
func (s *Store) ListActiveProfiles(ctx context.Context, limit int) ([]Profile, error) {
	var out []Profile
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM profiles
		 WHERE is_active
		 ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list active profiles: %w", err)
	}
	return out, nil
}

// SoftDeleteProfile deactivates a listing so the storefront stops showing it.
// The row is kept. Returns false when no active listing matched.
func (s *Store) SoftDeleteProfile(ctx context.Context, profileID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET is_active = false WHERE id = $1 AND is_active`, profileID)
	if err != nil {
		return false, fmt.Errorf("delete profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete profile: %w", err)
	}
	return n > 0, nil
}

// CountActiveProfiles reports the number of listings currently visible.
func (s *Store) CountActiveProfiles(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT count(*) FROM profiles WHERE is_active`)
	if err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return n, nil
}
