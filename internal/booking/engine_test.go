package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/repository"
)

// ----- fakes -----

type fakeAccounts struct {
	accounts map[uint64]model.Account
}

func (f *fakeAccounts) GetByID(_ context.Context, id uint64) (model.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return model.Account{}, repository.ErrAccountNotFound
	}
	return a, nil
}

type fakeTours struct {
	tours map[uint64]*model.Tour
}

func (f *fakeTours) GetByID(_ context.Context, id uint64) (*model.Tour, error) {
	t, ok := f.tours[id]
	if !ok {
		return nil, repository.ErrTourNotFound
	}
	cp := *t
	return &cp, nil
}

// fakeCapacity mimics the conditional multi-column UPDATE: under one lock
// it either finds every category sufficient and decrements all of them, or
// changes nothing and reports the short ones.
type fakeCapacity struct {
	mu        sync.Mutex
	tours     map[uint64]*model.Tour
	transient int // inject this many ErrConflict results before succeeding
	calls     int
}

func (f *fakeCapacity) Reserve(_ context.Context, tourID uint64, q model.Quantities) (*model.CapacitySnapshot, []model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.transient > 0 {
		f.transient--
		return nil, nil, repository.ErrConflict
	}
	t, ok := f.tours[tourID]
	if !ok {
		return nil, nil, repository.ErrTourNotFound
	}
	if !t.IsActive {
		return nil, nil, repository.ErrTourInactive
	}
	var short []model.Category
	for _, cat := range model.Categories {
		if uint32(q.Get(cat)) > t.Pricing.Rate(cat).Remaining {
			short = append(short, cat)
		}
	}
	if len(short) > 0 {
		return nil, short, nil
	}
	for _, cat := range model.Categories {
		r := t.Pricing.Rate(cat)
		r.Remaining -= uint32(q.Get(cat))
		t.Pricing.SetRate(cat, r)
	}
	return &model.CapacitySnapshot{TourID: tourID, Pricing: t.Pricing}, nil, nil
}

type fakeLedger struct {
	mu          sync.Mutex
	accountRows map[string]model.BookingRecord
	tourRows    map[string]model.BookingRecord
	repairs     map[string]model.RepairEntry
	accountFail int // fail this many account appends before succeeding
	tourFail    int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		accountRows: map[string]model.BookingRecord{},
		tourRows:    map[string]model.BookingRecord{},
		repairs:     map[string]model.RepairEntry{},
	}
}

func (f *fakeLedger) AppendAccountBooking(_ context.Context, rec model.BookingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accountFail > 0 {
		f.accountFail--
		return errors.New("account ledger unavailable")
	}
	if _, ok := f.accountRows[rec.BookingID]; ok {
		return nil // idempotent replay
	}
	f.accountRows[rec.BookingID] = rec
	return nil
}

func (f *fakeLedger) AppendTourAttendee(_ context.Context, rec model.BookingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tourFail > 0 {
		f.tourFail--
		return errors.New("tour ledger unavailable")
	}
	if _, ok := f.tourRows[rec.BookingID]; ok {
		return nil
	}
	f.tourRows[rec.BookingID] = rec
	return nil
}

func (f *fakeLedger) BookingsForAccount(_ context.Context, accountID uint64) ([]model.BookingDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.BookingDetail{}
	for _, rec := range f.accountRows {
		if rec.AccountID == accountID {
			out = append(out, model.BookingDetail{BookingRecord: rec})
		}
	}
	return out, nil
}

func (f *fakeLedger) AttendeesForTour(_ context.Context, tourID uint64) ([]model.AttendeeDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.AttendeeDetail{}
	for _, rec := range f.tourRows {
		if rec.TourID == tourID {
			out = append(out, model.AttendeeDetail{BookingRecord: rec})
		}
	}
	return out, nil
}

func (f *fakeLedger) RecordRepair(_ context.Context, rec model.BookingRecord, missing string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repairs[rec.BookingID] = model.RepairEntry{BookingRecord: rec, Missing: missing}
	return nil
}

func (f *fakeLedger) PendingRepairs(_ context.Context) ([]model.RepairEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.RepairEntry{}
	for _, e := range f.repairs {
		if e.RepairedAt == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedger) MarkRepaired(_ context.Context, bookingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.repairs[bookingID]
	if !ok {
		return errors.New("no repair entry")
	}
	now := time.Now()
	e.RepairedAt = &now
	f.repairs[bookingID] = e
	return nil
}

type capturedEvent struct {
	rec  model.BookingRecord
	tour *model.Tour
}

type fakePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (f *fakePublisher) PublishBookingCreated(_ context.Context, rec model.BookingRecord, tour *model.Tour) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, capturedEvent{rec: rec, tour: tour})
}

// ----- fixtures -----

const (
	customerID = uint64(1)
	operatorID = uint64(2)
	tourID     = uint64(10)
)

func testTour(adultSeats, childSeats uint32) *model.Tour {
	return &model.Tour{
		ID:              tourID,
		CompanyID:       operatorID,
		Title:           "Lofoten midnight sun",
		Country:         "Norway",
		IsActive:        true,
		BookingDeadline: time.Now().Add(72 * time.Hour),
		Pricing: model.Pricing{
			Adult:   model.CategoryRate{PriceCents: 150000, Capacity: adultSeats, Remaining: adultSeats},
			Child:   model.CategoryRate{PriceCents: 75000, Capacity: childSeats, Remaining: childSeats},
			Toddler: model.CategoryRate{PriceCents: 10000, Capacity: 5, Remaining: 5},
			Baby:    model.CategoryRate{PriceCents: 0, Capacity: 5, Remaining: 5},
		},
	}
}

type testEnv struct {
	engine    *Engine
	capacity  *fakeCapacity
	ledger    *fakeLedger
	publisher *fakePublisher
}

func newTestEnv(tour *model.Tour) *testEnv {
	accounts := &fakeAccounts{accounts: map[uint64]model.Account{
		customerID: {ID: customerID, Role: model.RoleCustomer, Username: "sigrid"},
		operatorID: {ID: operatorID, Role: model.RoleTourOperator, Username: "fjordtours"},
	}}
	tours := &fakeTours{tours: map[uint64]*model.Tour{}}
	capacity := &fakeCapacity{tours: map[uint64]*model.Tour{}}
	if tour != nil {
		// Each fake owns its own copy: the capacity fake mutates remaining
		// counts under its mutex while the tour store serves concurrent
		// eligibility reads.
		readCopy := *tour
		tours.tours[tour.ID] = &readCopy
		capacity.tours[tour.ID] = tour
	}
	ledger := newFakeLedger()
	publisher := &fakePublisher{}
	e := NewEngine(accounts, tours, capacity, ledger, publisher)
	e.retryDelay = time.Millisecond
	return &testEnv{engine: e, capacity: capacity, ledger: ledger, publisher: publisher}
}

// ----- tests -----

func TestReserveSuccessWritesBothLedgers(t *testing.T) {
	env := newTestEnv(testTour(10, 10))

	conf, err := env.engine.Reserve(context.Background(), tourID, customerID,
		model.Quantities{Adults: 2, Children: 1})
	require.NoError(t, err)
	require.NotNil(t, conf)

	// total = 2*150000 + 1*75000
	assert.Equal(t, uint64(375000), conf.TotalPaidCents)
	assert.NotEmpty(t, conf.BookingID)
	assert.Equal(t, uint32(8), conf.Tour.Pricing.Adult.Remaining)
	assert.Equal(t, uint32(9), conf.Tour.Pricing.Child.Remaining)

	// both ledgers hold the same record under the same id
	accRec, ok := env.ledger.accountRows[conf.BookingID]
	require.True(t, ok)
	tourRec, ok := env.ledger.tourRows[conf.BookingID]
	require.True(t, ok)
	assert.Equal(t, accRec, tourRec)
	assert.Equal(t, uint64(375000), accRec.TotalPaidCents)

	require.Len(t, env.publisher.events, 1)
	assert.Equal(t, conf.BookingID, env.publisher.events[0].rec.BookingID)
	assert.Equal(t, "Lofoten midnight sun", env.publisher.events[0].tour.Title)
}

func TestReserveExactRemainingSucceeds(t *testing.T) {
	env := newTestEnv(testTour(3, 0))

	conf, err := env.engine.Reserve(context.Background(), tourID, customerID,
		model.Quantities{Adults: 3})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), conf.Tour.Pricing.Adult.Remaining)
}

func TestReserveInsufficientCapacityNamesShortCategories(t *testing.T) {
	env := newTestEnv(testTour(2, 1))

	_, err := env.engine.Reserve(context.Background(), tourID, customerID,
		model.Quantities{Adults: 3, Children: 2, Toddlers: 1})
	var cErr *CapacityError
	require.ErrorAs(t, err, &cErr)
	assert.ElementsMatch(t, []model.Category{model.CategoryAdult, model.CategoryChild}, cErr.Short)

	// nothing was decremented
	assert.Equal(t, uint32(2), env.capacity.tours[tourID].Pricing.Adult.Remaining)
	assert.Equal(t, uint32(1), env.capacity.tours[tourID].Pricing.Child.Remaining)
	assert.Empty(t, env.ledger.accountRows)
	assert.Empty(t, env.ledger.tourRows)
}

func TestReserveValidation(t *testing.T) {
	env := newTestEnv(testTour(10, 10))

	var vErr *ValidationError
	_, err := env.engine.Reserve(context.Background(), tourID, customerID, model.Quantities{})
	require.ErrorAs(t, err, &vErr)

	_, err = env.engine.Reserve(context.Background(), tourID, customerID, model.Quantities{Adults: -1})
	require.ErrorAs(t, err, &vErr)

	// validation failures never touch capacity
	assert.Equal(t, 0, env.capacity.calls)
}

func TestReserveEligibilityGate(t *testing.T) {
	t.Run("operator cannot book", func(t *testing.T) {
		env := newTestEnv(testTour(10, 10))
		_, err := env.engine.Reserve(context.Background(), tourID, operatorID, model.Quantities{Adults: 1})
		var eErr *EligibilityError
		require.ErrorAs(t, err, &eErr)
		assert.Equal(t, ReasonNotACustomer, eErr.Reason)
		assert.Equal(t, 0, env.capacity.calls)
	})

	t.Run("unknown tour", func(t *testing.T) {
		env := newTestEnv(nil)
		_, err := env.engine.Reserve(context.Background(), tourID, customerID, model.Quantities{Adults: 1})
		var eErr *EligibilityError
		require.ErrorAs(t, err, &eErr)
		assert.Equal(t, ReasonTourNotFound, eErr.Reason)
	})

	t.Run("inactive tour", func(t *testing.T) {
		tour := testTour(10, 10)
		tour.IsActive = false
		env := newTestEnv(tour)
		_, err := env.engine.Reserve(context.Background(), tourID, customerID, model.Quantities{Adults: 1})
		var eErr *EligibilityError
		require.ErrorAs(t, err, &eErr)
		assert.Equal(t, ReasonTourInactive, eErr.Reason)
	})

	t.Run("deadline passed", func(t *testing.T) {
		tour := testTour(10, 10)
		tour.BookingDeadline = time.Now().Add(-time.Hour)
		env := newTestEnv(tour)
		_, err := env.engine.Reserve(context.Background(), tourID, customerID, model.Quantities{Adults: 1})
		var eErr *EligibilityError
		require.ErrorAs(t, err, &eErr)
		assert.Equal(t, ReasonDeadlinePassed, eErr.Reason)
		assert.Equal(t, 0, env.capacity.calls)
	})
}

// Two bursts of 15 seats against 20 available must never oversell: exactly
// one succeeds in full when they race, or both partially ordered outcomes
// leave remaining >= 0 with at most 20 seats granted in total.
func TestConcurrentReservationsNeverOversell(t *testing.T) {
	env := newTestEnv(testTour(20, 0))

	const workers = 2
	results := make([]error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := env.engine.Reserve(context.Background(), tourID, customerID,
				model.Quantities{Adults: 15})
			results[i] = err
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var cErr *CapacityError
		require.ErrorAs(t, err, &cErr)
		assert.Equal(t, []model.Category{model.CategoryAdult}, cErr.Short)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, uint32(5), env.capacity.tours[tourID].Pricing.Adult.Remaining)
	assert.Len(t, env.ledger.accountRows, 1)
	assert.Len(t, env.ledger.tourRows, 1)
}

func TestReserveRetriesTransientConflict(t *testing.T) {
	env := newTestEnv(testTour(10, 10))
	env.capacity.transient = 1

	conf, err := env.engine.Reserve(context.Background(), tourID, customerID,
		model.Quantities{Adults: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, conf.BookingID)
	assert.Equal(t, 2, env.capacity.calls)
}

func TestReserveTransientExhaustionSurfacesError(t *testing.T) {
	env := newTestEnv(testTour(10, 10))
	env.capacity.transient = 10 // more than the retry budget

	_, err := env.engine.Reserve(context.Background(), tourID, customerID,
		model.Quantities{Adults: 1})
	require.Error(t, err)
	require.ErrorIs(t, err, repository.ErrConflict)
	var cErr *CapacityError
	assert.False(t, errors.As(err, &cErr), "transient exhaustion is not a capacity rejection")
}

func TestLedgerFailureEscalatesToRepairButConfirms(t *testing.T) {
	env := newTestEnv(testTour(10, 10))
	env.ledger.tourFail = 100 // every attendee append fails

	conf, err := env.engine.Reserve(context.Background(), tourID, customerID,
		model.Quantities{Adults: 2})
	require.NoError(t, err, "the decrement succeeded, so the caller must get a confirmation")
	require.NotNil(t, conf)

	// account side landed, tour side is queued for repair
	_, ok := env.ledger.accountRows[conf.BookingID]
	assert.True(t, ok)
	_, ok = env.ledger.tourRows[conf.BookingID]
	assert.False(t, ok)

	entry, ok := env.ledger.repairs[conf.BookingID]
	require.True(t, ok)
	assert.Equal(t, model.RepairMissingTour, entry.Missing)
	assert.Equal(t, conf.BookingID, entry.BookingID)
}

func TestRunRepairsReappliesMissingAppends(t *testing.T) {
	env := newTestEnv(testTour(10, 10))
	env.ledger.tourFail = 100

	conf, err := env.engine.Reserve(context.Background(), tourID, customerID,
		model.Quantities{Adults: 1})
	require.NoError(t, err)

	// ledger recovers before the repair run
	env.ledger.mu.Lock()
	env.ledger.tourFail = 0
	env.ledger.mu.Unlock()

	n, err := env.engine.RunRepairs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec, ok := env.ledger.tourRows[conf.BookingID]
	require.True(t, ok)
	assert.Equal(t, conf.BookingID, rec.BookingID)

	pending, err := env.engine.PendingRepairs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestIdempotentAppendReplayKeepsOneRow(t *testing.T) {
	env := newTestEnv(testTour(10, 10))

	rec := model.BookingRecord{
		BookingID:      "f3b0c442-98fc-4c14-9afb-000000000001",
		TourID:         tourID,
		AccountID:      customerID,
		Quantities:     model.Quantities{Adults: 1},
		TotalPaidCents: 150000,
		BookedAt:       time.Now(),
	}
	require.NoError(t, env.ledger.AppendAccountBooking(context.Background(), rec))
	require.NoError(t, env.ledger.AppendAccountBooking(context.Background(), rec))
	assert.Len(t, env.ledger.accountRows, 1)
}

func TestListAttendeesForTourEnforcesOwnership(t *testing.T) {
	env := newTestEnv(testTour(10, 10))

	_, err := env.engine.Reserve(context.Background(), tourID, customerID,
		model.Quantities{Adults: 1})
	require.NoError(t, err)

	items, err := env.engine.ListAttendeesForTour(context.Background(), tourID, operatorID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = env.engine.ListAttendeesForTour(context.Background(), tourID, customerID)
	require.ErrorIs(t, err, repository.ErrForbidden)
}
