package model

import "time"

// Account roles.  An account without a role has not chosen one yet and can
// neither book nor publish tours.
const (
    RoleCustomer     = "customer"
    RoleTourOperator = "tourOperator"
)

// Account represents a customer or tour-operator identity as stored in the
// `accounts` table.  These structs are used internally by the repository
// layer; handlers define separate response types with the fields they want
// to expose (the password hash in particular never leaves the server).
type Account struct {
    ID           uint64    // accounts.id
    Username     string    // accounts.username
    Email        string    // accounts.email
    Phone        string    // accounts.phone
    PasswordHash string    // accounts.password_hash
    Role         string    // accounts.role; empty when unassigned
    Description  string    // accounts.description
    IsActive     bool      // accounts.is_active
    CreatedAt    time.Time // accounts.created_at
    UpdatedAt    time.Time // accounts.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token is stored.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
