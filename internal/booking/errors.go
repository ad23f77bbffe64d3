package booking

import (
	"fmt"
	"strings"

	"github.com/iliyamo/tour-booking/internal/model"
)

// Eligibility rejection reasons.  Each maps to one precondition of the
// eligibility gate; the gate is side-effect free, so any of these means
// capacity was never touched.
const (
	ReasonNotACustomer   = "not-a-customer"
	ReasonTourNotFound   = "tour-not-found"
	ReasonTourInactive   = "tour-inactive"
	ReasonDeadlinePassed = "deadline-passed"
)

// ValidationError rejects a request before any precondition or capacity
// check runs: negative quantities, or no seats requested at all.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// EligibilityError rejects a request at the eligibility gate with one of
// the named reasons.
type EligibilityError struct {
	Reason string
}

func (e *EligibilityError) Error() string { return "not eligible: " + e.Reason }

// CapacityError rejects a reservation whose atomic check found one or more
// categories short.  No category was decremented; partial reservations do
// not exist.
type CapacityError struct {
	Short []model.Category
}

func (e *CapacityError) Error() string {
	names := make([]string, 0, len(e.Short))
	for _, c := range e.Short {
		names = append(names, string(c))
	}
	return fmt.Sprintf("insufficient capacity: %s", strings.Join(names, ", "))
}
