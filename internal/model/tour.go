package model

import "time"

// Category identifies one of the four purchasable age tiers of a tour.
// Every tour prices and counts capacity for each category independently.
type Category string

const (
    CategoryAdult   Category = "adult"
    CategoryChild   Category = "child"
    CategoryToddler Category = "toddler"
    CategoryBaby    Category = "baby"
)

// Categories lists all age tiers in a fixed order.  Iteration over this
// slice keeps query column order and response rendering deterministic.
var Categories = []Category{CategoryAdult, CategoryChild, CategoryToddler, CategoryBaby}

// CategoryRate holds the price and seat counts of one age tier on a tour.
//
// Fields:
//  PriceCents – price per seat in cents.
//  Capacity   – originally configured number of seats.
//  Remaining  – seats left unbooked; never negative and never increases
//               (there is no cancellation path that returns capacity).
type CategoryRate struct {
    PriceCents uint32 `json:"price_cents"` // tours.<cat>_price_cents
    Capacity   uint32 `json:"capacity"`    // tours.<cat>_capacity
    Remaining  uint32 `json:"remaining"`   // tours.<cat>_remaining
}

// Pricing is the per-category capacity map of a tour.  Only the adult tier
// is mandatory when a tour is created; the other three default to a zero
// rate (price 0, capacity 0).
type Pricing struct {
    Adult   CategoryRate `json:"adult"`
    Child   CategoryRate `json:"child"`
    Toddler CategoryRate `json:"toddler"`
    Baby    CategoryRate `json:"baby"`
}

// Rate returns the rate of the given category.  Unknown categories yield a
// zero rate.
func (p Pricing) Rate(c Category) CategoryRate {
    switch c {
    case CategoryAdult:
        return p.Adult
    case CategoryChild:
        return p.Child
    case CategoryToddler:
        return p.Toddler
    case CategoryBaby:
        return p.Baby
    }
    return CategoryRate{}
}

// SetRate replaces the rate of the given category.
func (p *Pricing) SetRate(c Category, r CategoryRate) {
    switch c {
    case CategoryAdult:
        p.Adult = r
    case CategoryChild:
        p.Child = r
    case CategoryToddler:
        p.Toddler = r
    case CategoryBaby:
        p.Baby = r
    }
}

// Tour represents one bookable excursion published by a tour operator.
// The company reference is immutable after creation.  The attendee ledger
// is stored separately in the tour_attendees table and is append-only.
type Tour struct {
    ID              uint64    `json:"id"`
    CompanyID       uint64    `json:"company_id"`
    Title           string    `json:"title"`
    Description     string    `json:"description"`
    Category        string    `json:"category"`
    Country         string    `json:"country"`
    DatePosted      time.Time `json:"date_posted"`
    TripStart       time.Time `json:"trip_start"`
    TripEnd         time.Time `json:"trip_end"`
    BookingDeadline time.Time `json:"booking_deadline"`
    DurationDays    uint32    `json:"duration_days"`
    DurationNights  uint32    `json:"duration_nights"`
    IsActive        bool      `json:"is_active"`
    Pricing         Pricing   `json:"pricing"`
}

// CapacitySnapshot is the immutable state of a tour's capacity map returned
// by a successful reservation.  Prices and remaining counts were read in the
// same transaction as the decrement, so pricing computed from this snapshot
// always matches the capacity version that granted the seats.
type CapacitySnapshot struct {
    TourID  uint64  `json:"tour_id"`
    Pricing Pricing `json:"pricing"`
}
