// Package booking implements the reservation and inventory-consistency
// engine: the eligibility gate, the atomic capacity decrement, pricing,
// the dual-ledger writer saga and the read-side projections. Transport,
// authentication and tour authoring are collaborators the engine only
// sees through small interfaces.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/repository"
)

// AccountStore supplies account identity and role from the authentication
// collaborator's storage.
type AccountStore interface {
	GetByID(ctx context.Context, id uint64) (model.Account, error)
}

// TourStore supplies tour existence, active flag and deadline from the
// tour-authoring collaborator's storage.
type TourStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Tour, error)
}

// CapacityStore performs the atomic check-and-decrement over a tour's
// capacity map.  A non-empty short list means nothing was decremented and
// the named categories could not cover the request.
type CapacityStore interface {
	Reserve(ctx context.Context, tourID uint64, q model.Quantities) (*model.CapacitySnapshot, []model.Category, error)
}

// LedgerStore holds the two denormalized booking ledgers.  Both appends
// must be idempotent on the booking id.
type LedgerStore interface {
	AppendAccountBooking(ctx context.Context, rec model.BookingRecord) error
	AppendTourAttendee(ctx context.Context, rec model.BookingRecord) error
	BookingsForAccount(ctx context.Context, accountID uint64) ([]model.BookingDetail, error)
	AttendeesForTour(ctx context.Context, tourID uint64) ([]model.AttendeeDetail, error)
	RecordRepair(ctx context.Context, rec model.BookingRecord, missing string) error
	PendingRepairs(ctx context.Context) ([]model.RepairEntry, error)
	MarkRepaired(ctx context.Context, bookingID string) error
}

// EventPublisher announces confirmed bookings to downstream consumers.
// Publishing is best effort; failures are logged, never surfaced.
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, rec model.BookingRecord, tour *model.Tour)
}

// Confirmation is the successful result of Reserve.
type Confirmation struct {
	BookingID      string                  `json:"booking_id"`
	TotalPaidCents uint64                  `json:"total_paid_cents"`
	Quantities     model.Quantities        `json:"quantities"`
	BookedAt       time.Time               `json:"booked_at"`
	Tour           *model.CapacitySnapshot `json:"tour"`
}

// Engine wires the reservation pipeline together.  One Engine serves all
// tours; per-tour serialization happens inside the CapacityStore's
// conditional update, so no lock is held across pricing or ledger writes.
type Engine struct {
	accounts  AccountStore
	tours     TourStore
	capacity  CapacityStore
	ledger    LedgerStore
	publisher EventPublisher

	// appendRetries bounds how often each ledger append is retried before
	// the booking is escalated to the repair queue.
	appendRetries int
	// reserveRetries bounds retries of the conditional decrement on
	// transient storage conflicts (never on a capacity rejection).
	reserveRetries int
	retryDelay     time.Duration
	now            func() time.Time
}

// NewEngine constructs an Engine.  publisher may be nil when no broker is
// configured.
func NewEngine(accounts AccountStore, tours TourStore, capacity CapacityStore, ledger LedgerStore, publisher EventPublisher) *Engine {
	if accounts == nil || tours == nil || capacity == nil || ledger == nil {
		panic("nil store passed to NewEngine")
	}
	return &Engine{
		accounts:       accounts,
		tours:          tours,
		capacity:       capacity,
		ledger:         ledger,
		publisher:      publisher,
		appendRetries:  3,
		reserveRetries: 2,
		retryDelay:     25 * time.Millisecond,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Reserve runs the full reservation pipeline for one request: validation,
// eligibility gate, atomic capacity decrement, pricing off the snapshot,
// and the dual-ledger writer saga.
//
// Once the decrement commits, the reservation is promised to the
// purchaser: ledger-append failures are retried and, if the budget runs
// out, escalated to the repair queue — the caller still receives a
// Confirmation because the irreversible step succeeded.
func (e *Engine) Reserve(ctx context.Context, tourID, accountID uint64, q model.Quantities) (*Confirmation, error) {
	if err := validateQuantities(q); err != nil {
		return nil, err
	}

	tour, err := e.checkEligibility(ctx, tourID, accountID)
	if err != nil {
		return nil, err
	}

	snap, err := e.reserveCapacity(ctx, tourID, q)
	if err != nil {
		return nil, err
	}

	rec := model.BookingRecord{
		BookingID:      uuid.NewString(),
		TourID:         tourID,
		AccountID:      accountID,
		Quantities:     q,
		TotalPaidCents: Total(snap.Pricing, q),
		BookedAt:       e.now(),
	}

	e.writeLedgers(ctx, rec)

	if e.publisher != nil {
		e.publisher.PublishBookingCreated(ctx, rec, tour)
	}

	return &Confirmation{
		BookingID:      rec.BookingID,
		TotalPaidCents: rec.TotalPaidCents,
		Quantities:     q,
		BookedAt:       rec.BookedAt,
		Tour:           snap,
	}, nil
}

// checkEligibility verifies the gate preconditions.  It performs reads
// only; any rejection leaves no trace.
func (e *Engine) checkEligibility(ctx context.Context, tourID, accountID uint64) (*model.Tour, error) {
	acct, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, &EligibilityError{Reason: ReasonNotACustomer}
		}
		return nil, err
	}
	if acct.Role != model.RoleCustomer {
		return nil, &EligibilityError{Reason: ReasonNotACustomer}
	}
	tour, err := e.tours.GetByID(ctx, tourID)
	if err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			return nil, &EligibilityError{Reason: ReasonTourNotFound}
		}
		return nil, err
	}
	if !tour.IsActive {
		return nil, &EligibilityError{Reason: ReasonTourInactive}
	}
	if e.now().After(tour.BookingDeadline) {
		return nil, &EligibilityError{Reason: ReasonDeadlinePassed}
	}
	return tour, nil
}

// reserveCapacity applies the conditional decrement, retrying only on
// transient storage conflicts.  A capacity rejection is final and is never
// retried blindly.
func (e *Engine) reserveCapacity(ctx context.Context, tourID uint64, q model.Quantities) (*model.CapacitySnapshot, error) {
	var lastErr error
	for attempt := 0; attempt <= e.reserveRetries; attempt++ {
		snap, short, err := e.capacity.Reserve(ctx, tourID, q)
		if err == nil && len(short) > 0 {
			return nil, &CapacityError{Short: short}
		}
		if err == nil {
			return snap, nil
		}
		switch {
		case errors.Is(err, repository.ErrTourNotFound):
			return nil, &EligibilityError{Reason: ReasonTourNotFound}
		case errors.Is(err, repository.ErrTourInactive):
			return nil, &EligibilityError{Reason: ReasonTourInactive}
		case errors.Is(err, repository.ErrConflict):
			// Lost a race against another reservation; the row may have
			// capacity again on re-check.
			lastErr = err
		default:
			lastErr = err
		}
		if attempt < e.reserveRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.retryDelay):
			}
		}
	}
	return nil, fmt.Errorf("reserve capacity for tour %d: %w", tourID, lastErr)
}

// writeLedgers runs the dual-append saga.  Each side is retried
// independently; both appends are idempotent on the booking id.  When the
// retry budget is exhausted, the booking is recorded for operator repair —
// never dropped, never rolled back.
func (e *Engine) writeLedgers(ctx context.Context, rec model.BookingRecord) {
	accountOK := e.appendWithRetry(ctx, rec, e.ledger.AppendAccountBooking)
	tourOK := e.appendWithRetry(ctx, rec, e.ledger.AppendTourAttendee)
	if accountOK && tourOK {
		return
	}

	missing := model.RepairMissingBoth
	switch {
	case accountOK && !tourOK:
		missing = model.RepairMissingTour
	case !accountOK && tourOK:
		missing = model.RepairMissingAccount
	}
	log.Printf("booking %s: ledger append incomplete (missing=%s), queueing repair", rec.BookingID, missing)
	if err := e.ledger.RecordRepair(ctx, rec, missing); err != nil {
		// Last resort: the inconsistency must never be silent. The full
		// record goes to the log for manual remediation.
		log.Printf("booking %s: FAILED to queue repair (missing=%s, record=%+v): %v",
			rec.BookingID, missing, rec, err)
	}
}

func (e *Engine) appendWithRetry(ctx context.Context, rec model.BookingRecord, appendFn func(context.Context, model.BookingRecord) error) bool {
	for attempt := 1; attempt <= e.appendRetries; attempt++ {
		if err := appendFn(ctx, rec); err == nil {
			return true
		} else if attempt < e.appendRetries {
			log.Printf("booking %s: ledger append attempt %d/%d failed: %v",
				rec.BookingID, attempt, e.appendRetries, err)
			select {
			case <-ctx.Done():
				return false
			case <-time.After(e.retryDelay * time.Duration(attempt)):
			}
		}
	}
	return false
}

// ListBookingsForAccount returns the account's booking ledger with tour
// summaries resolved.  Read-only.
func (e *Engine) ListBookingsForAccount(ctx context.Context, accountID uint64) ([]model.BookingDetail, error) {
	return e.ledger.BookingsForAccount(ctx, accountID)
}

// ListAttendeesForTour returns the tour's attendee roster with display
// identities resolved.  Only the operator owning the tour may read it.
func (e *Engine) ListAttendeesForTour(ctx context.Context, tourID, callerID uint64) ([]model.AttendeeDetail, error) {
	tour, err := e.tours.GetByID(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if tour.CompanyID != callerID {
		return nil, repository.ErrForbidden
	}
	return e.ledger.AttendeesForTour(ctx, tourID)
}

// PendingRepairs lists bookings waiting for ledger remediation.
func (e *Engine) PendingRepairs(ctx context.Context) ([]model.RepairEntry, error) {
	return e.ledger.PendingRepairs(ctx)
}

// RunRepairs re-applies the missing idempotent appends for every pending
// repair entry and marks the resolved ones.  It returns how many entries
// were repaired.
func (e *Engine) RunRepairs(ctx context.Context) (int, error) {
	pending, err := e.ledger.PendingRepairs(ctx)
	if err != nil {
		return 0, err
	}
	repaired := 0
	for _, entry := range pending {
		ok := true
		if entry.Missing == model.RepairMissingAccount || entry.Missing == model.RepairMissingBoth {
			if err := e.ledger.AppendAccountBooking(ctx, entry.BookingRecord); err != nil {
				log.Printf("repair %s: account append failed: %v", entry.BookingID, err)
				ok = false
			}
		}
		if entry.Missing == model.RepairMissingTour || entry.Missing == model.RepairMissingBoth {
			if err := e.ledger.AppendTourAttendee(ctx, entry.BookingRecord); err != nil {
				log.Printf("repair %s: attendee append failed: %v", entry.BookingID, err)
				ok = false
			}
		}
		if ok {
			if err := e.ledger.MarkRepaired(ctx, entry.BookingID); err != nil {
				log.Printf("repair %s: mark repaired failed: %v", entry.BookingID, err)
				continue
			}
			repaired++
		}
	}
	return repaired, nil
}

func validateQuantities(q model.Quantities) error {
	if q.Adults < 0 || q.Children < 0 || q.Toddlers < 0 || q.Babies < 0 {
		return &ValidationError{Msg: "quantities must not be negative"}
	}
	if q.Total() == 0 {
		return &ValidationError{Msg: "at least one seat must be requested"}
	}
	return nil
}
