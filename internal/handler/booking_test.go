package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tour-booking/internal/booking"
	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/repository"
)

// Minimal in-memory stores, just enough to drive the engine through each
// HTTP status the booking endpoint can answer.

type memAccounts map[uint64]model.Account

func (m memAccounts) GetByID(_ context.Context, id uint64) (model.Account, error) {
	a, ok := m[id]
	if !ok {
		return model.Account{}, repository.ErrAccountNotFound
	}
	return a, nil
}

type memTours map[uint64]*model.Tour

func (m memTours) GetByID(_ context.Context, id uint64) (*model.Tour, error) {
	t, ok := m[id]
	if !ok {
		return nil, repository.ErrTourNotFound
	}
	return t, nil
}

type memCapacity struct{ tour *model.Tour }

func (m *memCapacity) Reserve(_ context.Context, tourID uint64, q model.Quantities) (*model.CapacitySnapshot, []model.Category, error) {
	if m.tour == nil || m.tour.ID != tourID {
		return nil, nil, repository.ErrTourNotFound
	}
	var short []model.Category
	for _, cat := range model.Categories {
		if uint32(q.Get(cat)) > m.tour.Pricing.Rate(cat).Remaining {
			short = append(short, cat)
		}
	}
	if len(short) > 0 {
		return nil, short, nil
	}
	for _, cat := range model.Categories {
		r := m.tour.Pricing.Rate(cat)
		r.Remaining -= uint32(q.Get(cat))
		m.tour.Pricing.SetRate(cat, r)
	}
	return &model.CapacitySnapshot{TourID: tourID, Pricing: m.tour.Pricing}, nil, nil
}

type memLedger struct {
	accountRows map[string]model.BookingRecord
	tourRows    map[string]model.BookingRecord
}

func (m *memLedger) AppendAccountBooking(_ context.Context, rec model.BookingRecord) error {
	m.accountRows[rec.BookingID] = rec
	return nil
}
func (m *memLedger) AppendTourAttendee(_ context.Context, rec model.BookingRecord) error {
	m.tourRows[rec.BookingID] = rec
	return nil
}
func (m *memLedger) BookingsForAccount(context.Context, uint64) ([]model.BookingDetail, error) {
	return nil, nil
}
func (m *memLedger) AttendeesForTour(context.Context, uint64) ([]model.AttendeeDetail, error) {
	return nil, nil
}
func (m *memLedger) RecordRepair(context.Context, model.BookingRecord, string) error { return nil }
func (m *memLedger) PendingRepairs(context.Context) ([]model.RepairEntry, error)     { return nil, nil }
func (m *memLedger) MarkRepaired(context.Context, string) error                      { return nil }

func newBookingTestHandler(tour *model.Tour) *CustomerHandler {
	accounts := memAccounts{
		1: {ID: 1, Role: model.RoleCustomer},
		2: {ID: 2, Role: model.RoleTourOperator},
	}
	tours := memTours{}
	capacity := &memCapacity{tour: tour}
	if tour != nil {
		tours[tour.ID] = tour
	}
	ledger := &memLedger{
		accountRows: map[string]model.BookingRecord{},
		tourRows:    map[string]model.BookingRecord{},
	}
	return NewCustomerHandler(booking.NewEngine(accounts, tours, capacity, ledger, nil))
}

func bookableTour() *model.Tour {
	return &model.Tour{
		ID:              10,
		CompanyID:       2,
		Title:           "Atlas trek",
		IsActive:        true,
		BookingDeadline: time.Now().Add(48 * time.Hour),
		Pricing: model.Pricing{
			Adult: model.CategoryRate{PriceCents: 90000, Capacity: 4, Remaining: 4},
			Child: model.CategoryRate{PriceCents: 45000, Capacity: 2, Remaining: 2},
		},
	}
}

func doCreateBooking(h *CustomerHandler, userID uint64, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	_ = h.CreateBooking(c)
	return rec
}

func TestCreateBookingCreated(t *testing.T) {
	h := newBookingTestHandler(bookableTour())
	rec := doCreateBooking(h, 1, `{"tour_id":10,"adults":2,"children":1}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"booking_id"`)
	assert.Contains(t, rec.Body.String(), `"total_paid_cents":225000`)
}

func TestCreateBookingValidation(t *testing.T) {
	h := newBookingTestHandler(bookableTour())

	rec := doCreateBooking(h, 1, `{"tour_id":10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doCreateBooking(h, 1, `{"tour_id":10,"adults":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBookingForbiddenForOperators(t *testing.T) {
	h := newBookingTestHandler(bookableTour())
	rec := doCreateBooking(h, 2, `{"tour_id":10,"adults":1}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateBookingTourNotFound(t *testing.T) {
	h := newBookingTestHandler(nil)
	rec := doCreateBooking(h, 1, `{"tour_id":10,"adults":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateBookingDeadlinePassed(t *testing.T) {
	tour := bookableTour()
	tour.BookingDeadline = time.Now().Add(-time.Hour)
	h := newBookingTestHandler(tour)
	rec := doCreateBooking(h, 1, `{"tour_id":10,"adults":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "deadline")
}

func TestCreateBookingInsufficientCapacity(t *testing.T) {
	h := newBookingTestHandler(bookableTour())
	rec := doCreateBooking(h, 1, `{"tour_id":10,"adults":5}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"short_categories":["adult"]`)
}
