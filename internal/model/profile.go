package model

// ProfileView kinds.  The account-facing profile is a tagged variant over
// the three role states rather than a string field callers branch on.
const (
    ProfileKindCustomer   = "customerView"
    ProfileKindOperator   = "operatorView"
    ProfileKindUnassigned = "unassignedView"
)

// ProfileView is the role-conditioned shape of an account profile.  Exactly
// one of Customer or Operator is set, matching Kind; unassigned accounts
// carry neither.
type ProfileView struct {
    Kind        string        `json:"kind"`
    ID          uint64        `json:"id"`
    Username    string        `json:"username"`
    Email       string        `json:"email"`
    Phone       string        `json:"phone"`
    Description string        `json:"description"`
    Customer    *CustomerView `json:"customer,omitempty"`
    Operator    *OperatorView `json:"operator,omitempty"`
}

// CustomerView carries the customer-only profile facets.
type CustomerView struct {
    BookingCount   int `json:"booking_count"`
    FavouriteCount int `json:"favourite_count"`
}

// OperatorView carries the operator-only profile facets.
type OperatorView struct {
    PublishedTours int `json:"published_tours"`
}

// NewProfileView builds the tagged variant for an account.  The counts are
// supplied by the caller so this constructor stays free of storage access.
func NewProfileView(a Account, bookings, favourites, tours int) ProfileView {
    v := ProfileView{
        ID:          a.ID,
        Username:    a.Username,
        Email:       a.Email,
        Phone:       a.Phone,
        Description: a.Description,
    }
    switch a.Role {
    case RoleCustomer:
        v.Kind = ProfileKindCustomer
        v.Customer = &CustomerView{BookingCount: bookings, FavouriteCount: favourites}
    case RoleTourOperator:
        v.Kind = ProfileKindOperator
        v.Operator = &OperatorView{PublishedTours: tours}
    default:
        v.Kind = ProfileKindUnassigned
    }
    return v
}
