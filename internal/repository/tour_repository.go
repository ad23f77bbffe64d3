// Package repository contains data access logic for tour authoring and
// browsing. A Tour represents one bookable excursion with a per-category
// capacity map stored as flat columns on the tours row. Capacity columns are
// only ever decremented through CapacityRepo; this file never touches the
// remaining counts after creation.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/tour-booking/internal/model"
)

// TourRepo manages persistence for tours.
type TourRepo struct {
	db *sql.DB
}

// NewTourRepo constructs a TourRepo with the given DB handle.
func NewTourRepo(db *sql.DB) *TourRepo {
	return &TourRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *TourRepo) DB() *sql.DB {
	return r.db
}

const tourCols = `id, company_id, title, description, category, country,
	date_posted, trip_start, trip_end, booking_deadline,
	duration_days, duration_nights, is_active,
	adult_price_cents, adult_capacity, adult_remaining,
	child_price_cents, child_capacity, child_remaining,
	toddler_price_cents, toddler_capacity, toddler_remaining,
	baby_price_cents, baby_capacity, baby_remaining`

func scanTour(row interface {
	Scan(dest ...interface{}) error
}) (*model.Tour, error) {
	var t model.Tour
	err := row.Scan(
		&t.ID, &t.CompanyID, &t.Title, &t.Description, &t.Category, &t.Country,
		&t.DatePosted, &t.TripStart, &t.TripEnd, &t.BookingDeadline,
		&t.DurationDays, &t.DurationNights, &t.IsActive,
		&t.Pricing.Adult.PriceCents, &t.Pricing.Adult.Capacity, &t.Pricing.Adult.Remaining,
		&t.Pricing.Child.PriceCents, &t.Pricing.Child.Capacity, &t.Pricing.Child.Remaining,
		&t.Pricing.Toddler.PriceCents, &t.Pricing.Toddler.Capacity, &t.Pricing.Toddler.Remaining,
		&t.Pricing.Baby.PriceCents, &t.Pricing.Baby.Capacity, &t.Pricing.Baby.Remaining,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new tour and assigns the generated ID back to the tour
// struct.  Remaining counts are initialised to the configured capacities;
// from then on they only move through CapacityRepo.Reserve.
func (r *TourRepo) Create(ctx context.Context, t *model.Tour) error {
	const q = `INSERT INTO tours (company_id, title, description, category, country,
	             trip_start, trip_end, booking_deadline, duration_days, duration_nights,
	             adult_price_cents, adult_capacity, adult_remaining,
	             child_price_cents, child_capacity, child_remaining,
	             toddler_price_cents, toddler_capacity, toddler_remaining,
	             baby_price_cents, baby_capacity, baby_remaining)
	           VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q,
		t.CompanyID, t.Title, t.Description, t.Category, t.Country,
		t.TripStart, t.TripEnd, t.BookingDeadline, t.DurationDays, t.DurationNights,
		t.Pricing.Adult.PriceCents, t.Pricing.Adult.Capacity, t.Pricing.Adult.Capacity,
		t.Pricing.Child.PriceCents, t.Pricing.Child.Capacity, t.Pricing.Child.Capacity,
		t.Pricing.Toddler.PriceCents, t.Pricing.Toddler.Capacity, t.Pricing.Toddler.Capacity,
		t.Pricing.Baby.PriceCents, t.Pricing.Baby.Capacity, t.Pricing.Baby.Capacity,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	// Query back the full row to populate defaults (date_posted, is_active,
	// remaining counts).
	got, err := r.GetByID(ctx, t.ID)
	if err != nil {
		return err
	}
	*t = *got
	return nil
}

// GetByID retrieves a tour by its ID.  It returns ErrTourNotFound if there
// is no matching row.
func (r *TourRepo) GetByID(ctx context.Context, id uint64) (*model.Tour, error) {
	t, err := scanTour(r.db.QueryRowContext(ctx, "SELECT "+tourCols+" FROM tours WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTourNotFound
		}
		return nil, err
	}
	return t, nil
}

// ListActive returns all active tours ordered by posting date, newest
// first.  This backs the public browse listing.
func (r *TourRepo) ListActive(ctx context.Context) ([]model.Tour, error) {
	return r.list(ctx, "SELECT "+tourCols+" FROM tours WHERE is_active = 1 ORDER BY date_posted DESC")
}

// ListByCompany returns all tours (active or not) published by the given
// operator, newest first.
func (r *TourRepo) ListByCompany(ctx context.Context, companyID uint64) ([]model.Tour, error) {
	return r.list(ctx, "SELECT "+tourCols+" FROM tours WHERE company_id = ? ORDER BY date_posted DESC", companyID)
}

// ListActiveByCompany returns the active tours of one operator for the
// public company page.
func (r *TourRepo) ListActiveByCompany(ctx context.Context, companyID uint64) ([]model.Tour, error) {
	return r.list(ctx, "SELECT "+tourCols+" FROM tours WHERE company_id = ? AND is_active = 1 ORDER BY date_posted DESC", companyID)
}

func (r *TourRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Tour, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tours := make([]model.Tour, 0)
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		tours = append(tours, *t)
	}
	return tours, rows.Err()
}

// CountByCompany returns the number of tours published by an operator.
func (r *TourRepo) CountByCompany(ctx context.Context, companyID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tours WHERE company_id = ?", companyID).Scan(&n)
	return n, err
}

// TourUpdate carries the editable, non-capacity fields of a tour.  Nil
// pointers leave the current value unchanged.
type TourUpdate struct {
	Title           *string
	Description     *string
	Category        *string
	Country         *string
	TripStart       *time.Time
	TripEnd         *time.Time
	BookingDeadline *time.Time
	IsActive        *bool
}

// Update edits a tour owned by the given operator.  It returns
// ErrTourNotFound when the tour does not exist and ErrForbidden when it
// belongs to a different company.  Capacity and prices are deliberately not
// editable here: prices feed the reservation snapshot and remaining counts
// are owned by CapacityRepo.
func (r *TourRepo) Update(ctx context.Context, tourID, companyID uint64, upd TourUpdate) (*model.Tour, error) {
	cur, err := r.GetByID(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if cur.CompanyID != companyID {
		return nil, ErrForbidden
	}
	set := func(p *string, cur string) string {
		if p != nil {
			return *p
		}
		return cur
	}
	title := set(upd.Title, cur.Title)
	desc := set(upd.Description, cur.Description)
	category := set(upd.Category, cur.Category)
	country := set(upd.Country, cur.Country)
	tripStart := cur.TripStart
	if upd.TripStart != nil {
		tripStart = *upd.TripStart
	}
	tripEnd := cur.TripEnd
	if upd.TripEnd != nil {
		tripEnd = *upd.TripEnd
	}
	deadline := cur.BookingDeadline
	if upd.BookingDeadline != nil {
		deadline = *upd.BookingDeadline
	}
	active := cur.IsActive
	if upd.IsActive != nil {
		active = *upd.IsActive
	}
	const q = `UPDATE tours SET title=?, description=?, category=?, country=?,
	           trip_start=?, trip_end=?, booking_deadline=?, is_active=? WHERE id=?`
	if _, err := r.db.ExecContext(ctx, q, title, desc, category, country,
		tripStart, tripEnd, deadline, active, tourID); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, tourID)
}

// Delete removes a tour owned by the given operator.  Tours that already
// have attendees cannot be deleted; ErrConflict is returned instead so the
// handler can answer 409.
func (r *TourRepo) Delete(ctx context.Context, tourID, companyID uint64) error {
	cur, err := r.GetByID(ctx, tourID)
	if err != nil {
		return err
	}
	if cur.CompanyID != companyID {
		return ErrForbidden
	}
	var attendees int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tour_attendees WHERE tour_id = ?", tourID).Scan(&attendees); err != nil {
		return err
	}
	if attendees > 0 {
		return ErrConflict
	}
	_, err = r.db.ExecContext(ctx, "DELETE FROM tours WHERE id = ?", tourID)
	return err
}
