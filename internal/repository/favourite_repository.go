package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// FavouriteRepo manages the favourites set of an account.  Favourites sit
// outside the booking engine's correctness scope; they are plain
// single-record CRUD guarded by a unique (account_id, tour_id) key.
type FavouriteRepo struct {
	db *sql.DB
}

// NewFavouriteRepo returns a FavouriteRepo bound to the given database.
func NewFavouriteRepo(db *sql.DB) *FavouriteRepo { return &FavouriteRepo{db: db} }

// FavouriteDetail is a favourite with its tour and company resolved for
// display.
type FavouriteDetail struct {
	TourID      uint64    `json:"tour_id"`
	Title       string    `json:"title"`
	Country     string    `json:"country"`
	TripStart   time.Time `json:"trip_start"`
	IsActive    bool      `json:"is_active"`
	CompanyID   uint64    `json:"company_id"`
	CompanyName string    `json:"company_name"`
	AddedAt     time.Time `json:"added_at"`
}

// Add stores a favourite.  Favouriting the same tour twice returns
// ErrConflict via the unique pair key.
func (r *FavouriteRepo) Add(ctx context.Context, accountID, tourID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO favourites (account_id, tour_id) VALUES (?,?)", accountID, tourID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	return nil
}

// Remove deletes a favourite.  Removing a tour that was never favourited
// returns sql.ErrNoRows so the handler can answer 404.
func (r *FavouriteRepo) Remove(ctx context.Context, accountID, tourID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM favourites WHERE account_id = ? AND tour_id = ?", accountID, tourID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByAccount returns the account's favourites with tour and company
// display data, most recently added first.
func (r *FavouriteRepo) ListByAccount(ctx context.Context, accountID uint64) ([]FavouriteDetail, error) {
	const q = `SELECT f.tour_id, t.title, t.country, t.trip_start, t.is_active,
	                  t.company_id, acc.username, f.created_at
	           FROM favourites f
	           JOIN tours t ON t.id = f.tour_id
	           JOIN accounts acc ON acc.id = t.company_id
	           WHERE f.account_id = ?
	           ORDER BY f.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]FavouriteDetail, 0)
	for rows.Next() {
		var d FavouriteDetail
		if err := rows.Scan(&d.TourID, &d.Title, &d.Country, &d.TripStart, &d.IsActive,
			&d.CompanyID, &d.CompanyName, &d.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Count returns the size of an account's favourites set.
func (r *FavouriteRepo) Count(ctx context.Context, accountID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM favourites WHERE account_id = ?", accountID).Scan(&n)
	return n, err
}
