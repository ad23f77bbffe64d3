package model

import "time"

// Quantities holds the number of seats requested per age tier.  Each count
// must be non-negative and at least one must be positive for a reservation
// to be accepted.
type Quantities struct {
    Adults   int `json:"adults"`
    Children int `json:"children"`
    Toddlers int `json:"toddlers"`
    Babies   int `json:"babies"`
}

// Get returns the requested count for a category.
func (q Quantities) Get(c Category) int {
    switch c {
    case CategoryAdult:
        return q.Adults
    case CategoryChild:
        return q.Children
    case CategoryToddler:
        return q.Toddlers
    case CategoryBaby:
        return q.Babies
    }
    return 0
}

// Total returns the sum over all categories.
func (q Quantities) Total() int {
    return q.Adults + q.Children + q.Toddlers + q.Babies
}

// BookingRecord is the immutable unit created exactly once per successful
// reservation.  The same record is written to the purchaser's booking
// ledger (account_bookings) and the tour's attendee ledger (tour_attendees)
// under the shared BookingID; both copies must agree on content.
type BookingRecord struct {
    BookingID      string     `json:"booking_id"`
    TourID         uint64     `json:"tour_id"`
    AccountID      uint64     `json:"account_id"`
    Quantities     Quantities `json:"quantities"`
    TotalPaidCents uint64     `json:"total_paid_cents"`
    BookedAt       time.Time  `json:"booked_at"`
}

// BookingDetail is a booking record from the account ledger with its tour
// reference resolved to current summary data, for "my bookings" responses.
type BookingDetail struct {
    BookingRecord
    TourTitle       string    `json:"tour_title"`
    TourCountry     string    `json:"tour_country"`
    TripStart       time.Time `json:"trip_start"`
    TripEnd         time.Time `json:"trip_end"`
    BookingDeadline time.Time `json:"booking_deadline"`
    TourIsActive    bool      `json:"tour_is_active"`
}

// AttendeeDetail is a booking record from the tour ledger with its account
// reference resolved to a display identity, for attendee roster responses.
type AttendeeDetail struct {
    BookingRecord
    Username string `json:"username"`
    Email    string `json:"email"`
}

// RepairSide names which ledger copy of a booking is missing.
const (
    RepairMissingAccount = "account"
    RepairMissingTour    = "tour"
    RepairMissingBoth    = "both"
)

// RepairEntry is a booking whose ledger appends could not be completed
// within the retry budget.  Capacity was already granted, so the record is
// queued for operator remediation instead of being rolled back or dropped.
type RepairEntry struct {
    BookingRecord
    Missing    string     `json:"missing"`
    CreatedAt  time.Time  `json:"created_at"`
    RepairedAt *time.Time `json:"repaired_at,omitempty"`
}
