package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/tour-booking/internal/model"
)

// LedgerRepo persists the two denormalized copies of each booking record:
// one row in account_bookings (the purchaser's ledger) and one row in
// tour_attendees (the tour's attendee ledger). There is no single
// "bookings" table; the duplication optimizes the two read paths and both
// appends are made idempotent by the shared booking_id primary key, so a
// replayed append is a no-op rather than a duplicate.
type LedgerRepo struct {
	db *sql.DB
}

// NewLedgerRepo returns a LedgerRepo bound to the given database.
func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// AppendAccountBooking writes the booking record into the purchaser's
// ledger.  Replaying an already-recorded booking id leaves the ledger
// unchanged.
func (r *LedgerRepo) AppendAccountBooking(ctx context.Context, rec model.BookingRecord) error {
	const q = `INSERT INTO account_bookings
	           (booking_id, account_id, tour_id, adults, children, toddlers, babies, total_paid_cents, booked_at)
	           VALUES (?,?,?,?,?,?,?,?,?)
	           ON DUPLICATE KEY UPDATE booking_id = booking_id`
	_, err := r.db.ExecContext(ctx, q,
		rec.BookingID, rec.AccountID, rec.TourID,
		rec.Quantities.Adults, rec.Quantities.Children, rec.Quantities.Toddlers, rec.Quantities.Babies,
		rec.TotalPaidCents, rec.BookedAt.UTC())
	return err
}

// AppendTourAttendee writes the booking record into the tour's attendee
// ledger.  Idempotent in the same way as AppendAccountBooking.
func (r *LedgerRepo) AppendTourAttendee(ctx context.Context, rec model.BookingRecord) error {
	const q = `INSERT INTO tour_attendees
	           (booking_id, tour_id, account_id, adults, children, toddlers, babies, total_paid_cents, booked_at)
	           VALUES (?,?,?,?,?,?,?,?,?)
	           ON DUPLICATE KEY UPDATE booking_id = booking_id`
	_, err := r.db.ExecContext(ctx, q,
		rec.BookingID, rec.TourID, rec.AccountID,
		rec.Quantities.Adults, rec.Quantities.Children, rec.Quantities.Toddlers, rec.Quantities.Babies,
		rec.TotalPaidCents, rec.BookedAt.UTC())
	return err
}

// BookingsForAccount returns the account's booking ledger in append order
// with each record's tour reference resolved to current summary data.
func (r *LedgerRepo) BookingsForAccount(ctx context.Context, accountID uint64) ([]model.BookingDetail, error) {
	const q = `SELECT b.booking_id, b.account_id, b.tour_id,
	                  b.adults, b.children, b.toddlers, b.babies,
	                  b.total_paid_cents, b.booked_at,
	                  t.title, t.country, t.trip_start, t.trip_end, t.booking_deadline, t.is_active
	           FROM account_bookings b
	           JOIN tours t ON t.id = b.tour_id
	           WHERE b.account_id = ?
	           ORDER BY b.booked_at ASC, b.booking_id ASC`
	rows, err := r.db.QueryContext(ctx, q, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.BookingDetail, 0)
	for rows.Next() {
		var d model.BookingDetail
		if err := rows.Scan(
			&d.BookingID, &d.AccountID, &d.TourID,
			&d.Quantities.Adults, &d.Quantities.Children, &d.Quantities.Toddlers, &d.Quantities.Babies,
			&d.TotalPaidCents, &d.BookedAt,
			&d.TourTitle, &d.TourCountry, &d.TripStart, &d.TripEnd, &d.BookingDeadline, &d.TourIsActive,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// AttendeesForTour returns the tour's attendee ledger in append order with
// each record's account reference resolved to a display identity.
func (r *LedgerRepo) AttendeesForTour(ctx context.Context, tourID uint64) ([]model.AttendeeDetail, error) {
	const q = `SELECT a.booking_id, a.account_id, a.tour_id,
	                  a.adults, a.children, a.toddlers, a.babies,
	                  a.total_paid_cents, a.booked_at,
	                  acc.username, acc.email
	           FROM tour_attendees a
	           JOIN accounts acc ON acc.id = a.account_id
	           WHERE a.tour_id = ?
	           ORDER BY a.booked_at ASC, a.booking_id ASC`
	rows, err := r.db.QueryContext(ctx, q, tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.AttendeeDetail, 0)
	for rows.Next() {
		var d model.AttendeeDetail
		if err := rows.Scan(
			&d.BookingID, &d.AccountID, &d.TourID,
			&d.Quantities.Adults, &d.Quantities.Children, &d.Quantities.Toddlers, &d.Quantities.Babies,
			&d.TotalPaidCents, &d.BookedAt,
			&d.Username, &d.Email,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountForAccount returns the number of bookings in an account's ledger.
func (r *LedgerRepo) CountForAccount(ctx context.Context, accountID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM account_bookings WHERE account_id = ?", accountID).Scan(&n)
	return n, err
}

// RecordRepair queues a booking whose ledger appends were not completed.
// Keyed by booking id so a repeated escalation does not pile up rows.
func (r *LedgerRepo) RecordRepair(ctx context.Context, rec model.BookingRecord, missing string) error {
	const q = `INSERT INTO booking_repairs
	           (booking_id, account_id, tour_id, adults, children, toddlers, babies, total_paid_cents, booked_at, missing)
	           VALUES (?,?,?,?,?,?,?,?,?,?)
	           ON DUPLICATE KEY UPDATE missing = VALUES(missing), repaired_at = NULL`
	_, err := r.db.ExecContext(ctx, q,
		rec.BookingID, rec.AccountID, rec.TourID,
		rec.Quantities.Adults, rec.Quantities.Children, rec.Quantities.Toddlers, rec.Quantities.Babies,
		rec.TotalPaidCents, rec.BookedAt.UTC(), missing)
	return err
}

// PendingRepairs lists repair entries that have not been resolved yet,
// oldest first.
func (r *LedgerRepo) PendingRepairs(ctx context.Context) ([]model.RepairEntry, error) {
	const q = `SELECT booking_id, account_id, tour_id,
	                  adults, children, toddlers, babies,
	                  total_paid_cents, booked_at, missing, created_at
	           FROM booking_repairs WHERE repaired_at IS NULL
	           ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.RepairEntry, 0)
	for rows.Next() {
		var e model.RepairEntry
		if err := rows.Scan(
			&e.BookingID, &e.AccountID, &e.TourID,
			&e.Quantities.Adults, &e.Quantities.Children, &e.Quantities.Toddlers, &e.Quantities.Babies,
			&e.TotalPaidCents, &e.BookedAt, &e.Missing, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkRepaired stamps a repair entry as resolved.
func (r *LedgerRepo) MarkRepaired(ctx context.Context, bookingID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE booking_repairs SET repaired_at = ? WHERE booking_id = ? AND repaired_at IS NULL",
		time.Now().UTC(), bookingID)
	return err
}
