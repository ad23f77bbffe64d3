package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/utils"
)

// AccountRepo manages persistence for the 'accounts' table.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

const accountCols = "id, username, email, phone, password_hash, role, description, is_active, created_at, updated_at"

// Create inserts an account and returns its ID.  The role may be empty;
// accounts without a role are stored with NULL and can pick one later.
func (r *AccountRepo) Create(ctx context.Context, username, email, phone, password, role string, cost int) (uint64, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	var roleVal interface{}
	if role != "" {
		roleVal = role
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts (username, email, phone, password_hash, role) VALUES (?,?,?,?,?)",
		username, email, phone, hash, roleVal)
	if err != nil {
		// 1062 is MySQL's duplicate-key error; username and email are unique.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrAccountExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "SELECT "+accountCols+" FROM accounts WHERE email=? LIMIT 1", email)
}

// GetByID fetches an account by id.  It returns ErrAccountNotFound when no
// row matches.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	return r.getOne(ctx, "SELECT "+accountCols+" FROM accounts WHERE id=? LIMIT 1", id)
}

func (r *AccountRepo) getOne(ctx context.Context, query string, arg interface{}) (model.Account, error) {
	var (
		a    model.Account
		role sql.NullString
		desc sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Username, &a.Email, &a.Phone, &a.PasswordHash,
		&role, &desc, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, ErrAccountNotFound
		}
		return model.Account{}, err
	}
	a.Role = role.String
	a.Description = desc.String
	return a, nil
}

// UpdateProfile updates the mutable profile fields of an account.  Role and
// password are managed elsewhere; the role is immutable once set.
func (r *AccountRepo) UpdateProfile(ctx context.Context, id uint64, username, email, phone, description string) (model.Account, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET username=?, email=?, phone=?, description=? WHERE id=?",
		username, email, phone, description, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.Account{}, ErrAccountExists
		}
		return model.Account{}, err
	}
	return r.GetByID(ctx, id)
}

// ListOperators returns the public directory of tour-operator accounts,
// ordered by username.  Password hashes are not selected.
func (r *AccountRepo) ListOperators(ctx context.Context) ([]model.Account, error) {
	const q = `SELECT id, username, email, phone, COALESCE(description, ''), created_at
	           FROM accounts WHERE role = 'tourOperator' AND is_active = 1
	           ORDER BY username ASC`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Account, 0)
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Username, &a.Email, &a.Phone, &a.Description, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Role = model.RoleTourOperator
		out = append(out, a)
	}
	return out, rows.Err()
}
