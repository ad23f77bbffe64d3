package booking

import "github.com/iliyamo/tour-booking/internal/model"

// Total computes the charge for the requested quantities against the
// prices captured by the reservation snapshot. Pure function: using the
// snapshot (not a re-read) guarantees the charged total matches the
// capacity version that actually granted the seats, even if the operator
// edits prices concurrently. Categories the tour never priced contribute
// zero.
func Total(p model.Pricing, q model.Quantities) uint64 {
	var total uint64
	for _, c := range model.Categories {
		total += uint64(q.Get(c)) * uint64(p.Rate(c).PriceCents)
	}
	return total
}
