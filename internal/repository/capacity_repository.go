package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/tour-booking/internal/model"
)

// CapacityRepo is the only component allowed to decrement a tour's
// remaining capacity. The decrement is a single conditional UPDATE across
// all four category columns: either every requested quantity fits and all
// columns move together, or nothing changes. MySQL evaluates the WHERE
// guard against the current row under the row lock, so two concurrent
// reservations on the same tour can never both pass the check and
// oversell a category.
type CapacityRepo struct {
	db *sql.DB
}

// NewCapacityRepo constructs a CapacityRepo bound to the given database.
func NewCapacityRepo(db *sql.DB) *CapacityRepo { return &CapacityRepo{db: db} }

const reserveStmt = `UPDATE tours
	SET adult_remaining   = adult_remaining   - ?,
	    child_remaining   = child_remaining   - ?,
	    toddler_remaining = toddler_remaining - ?,
	    baby_remaining    = baby_remaining    - ?
	WHERE id = ? AND is_active = 1
	  AND adult_remaining   >= ?
	  AND child_remaining   >= ?
	  AND toddler_remaining >= ?
	  AND baby_remaining    >= ?`

const snapshotStmt = `SELECT id,
	adult_price_cents, adult_capacity, adult_remaining,
	child_price_cents, child_capacity, child_remaining,
	toddler_price_cents, toddler_capacity, toddler_remaining,
	baby_price_cents, baby_capacity, baby_remaining
	FROM tours WHERE id = ?`

// Reserve atomically checks and decrements the per-category remaining
// capacity of one tour.
//
// On success it returns the post-decrement snapshot (prices and remaining
// counts read in the same transaction) and a nil short list.  When one or
// more categories cannot cover the request, nothing is decremented and the
// short list names the insufficient categories.  ErrTourNotFound and
// ErrTourInactive cover the cases where the guarded UPDATE matched no row
// for reasons other than capacity.
func (r *CapacityRepo) Reserve(ctx context.Context, tourID uint64, q model.Quantities) (*model.CapacitySnapshot, []model.Category, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, reserveStmt,
		q.Adults, q.Children, q.Toddlers, q.Babies,
		tourID,
		q.Adults, q.Children, q.Toddlers, q.Babies,
	)
	if err != nil {
		return nil, nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, nil, err
	}

	if n == 0 {
		// The guard rejected the update. Re-read the row to tell the caller
		// whether the tour is gone, inactive, or short on capacity, and in
		// which categories.
		short, err := r.diagnoseTx(ctx, tx, tourID, q)
		if err != nil {
			return nil, nil, err
		}
		return nil, short, nil
	}

	snap, err := scanSnapshot(tx.QueryRowContext(ctx, snapshotStmt, tourID))
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true
	return snap, nil, nil
}

// diagnoseTx figures out why the guarded UPDATE matched nothing.  It runs
// inside the same transaction so the answer refers to the row version that
// rejected the request.
func (r *CapacityRepo) diagnoseTx(ctx context.Context, tx *sql.Tx, tourID uint64, q model.Quantities) ([]model.Category, error) {
	var active bool
	var remaining [4]uint32
	err := tx.QueryRowContext(ctx,
		`SELECT is_active, adult_remaining, child_remaining, toddler_remaining, baby_remaining
		 FROM tours WHERE id = ?`, tourID).
		Scan(&active, &remaining[0], &remaining[1], &remaining[2], &remaining[3])
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTourNotFound
		}
		return nil, err
	}
	if !active {
		return nil, ErrTourInactive
	}
	short := make([]model.Category, 0, len(model.Categories))
	for i, c := range model.Categories {
		if q.Get(c) > int(remaining[i]) {
			short = append(short, c)
		}
	}
	if len(short) == 0 {
		// Guard failed yet every category fits now: the row changed under a
		// concurrent reservation between UPDATE and re-read. Treat as a
		// transient conflict; callers may retry.
		return nil, ErrConflict
	}
	return short, nil
}

// Snapshot returns the current capacity map of a tour without touching it.
func (r *CapacityRepo) Snapshot(ctx context.Context, tourID uint64) (*model.CapacitySnapshot, error) {
	snap, err := scanSnapshot(r.db.QueryRowContext(ctx, snapshotStmt, tourID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTourNotFound
		}
		return nil, err
	}
	return snap, nil
}

func scanSnapshot(row *sql.Row) (*model.CapacitySnapshot, error) {
	var s model.CapacitySnapshot
	err := row.Scan(&s.TourID,
		&s.Pricing.Adult.PriceCents, &s.Pricing.Adult.Capacity, &s.Pricing.Adult.Remaining,
		&s.Pricing.Child.PriceCents, &s.Pricing.Child.Capacity, &s.Pricing.Child.Remaining,
		&s.Pricing.Toddler.PriceCents, &s.Pricing.Toddler.Capacity, &s.Pricing.Toddler.Remaining,
		&s.Pricing.Baby.PriceCents, &s.Pricing.Baby.Capacity, &s.Pricing.Baby.Remaining,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
