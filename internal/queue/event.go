// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingCreatedEvent is published when a reservation has been confirmed
// and its ledger writes initiated. It contains enough information for
// downstream consumers to log, notify, or trigger analytics without
// querying the primary database.
type BookingCreatedEvent struct {
	BookingID      string `json:"booking_id"`
	AccountID      uint64 `json:"account_id"`
	TourID         uint64 `json:"tour_id"`
	TourTitle      string `json:"tour_title"`
	CompanyID      uint64 `json:"company_id"`
	Adults         int    `json:"adults"`
	Children       int    `json:"children"`
	Toddlers       int    `json:"toddlers"`
	Babies         int    `json:"babies"`
	TotalPaidCents uint64 `json:"total_paid_cents"`
	BookedAt       string `json:"booked_at"`
}
