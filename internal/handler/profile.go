package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/repository"
)

// ProfileHandler serves the role-conditioned account profile and the
// favourites list.
type ProfileHandler struct {
	Accounts   *repository.AccountRepo
	Tours      *repository.TourRepo
	Ledger     *repository.LedgerRepo
	Favourites *repository.FavouriteRepo
}

func NewProfileHandler(a *repository.AccountRepo, t *repository.TourRepo, l *repository.LedgerRepo, f *repository.FavouriteRepo) *ProfileHandler {
	if a == nil || t == nil || l == nil || f == nil {
		panic("nil repository passed to NewProfileHandler")
	}
	return &ProfileHandler{Accounts: a, Tours: t, Ledger: l, Favourites: f}
}

// GetProfile handles GET /v1/me. The response shape depends on the
// account's role: customers see booking and favourite counts, operators
// see their published tour count, unassigned accounts see neither.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	a, err := h.Accounts.GetByID(ctx, uid)
	if err != nil {
		if err == repository.ErrAccountNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	var bookings, favourites, tours int
	switch a.Role {
	case model.RoleCustomer:
		if bookings, err = h.Ledger.CountForAccount(ctx, uid); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if favourites, err = h.Favourites.Count(ctx, uid); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	case model.RoleTourOperator:
		if tours, err = h.Tours.CountByCompany(ctx, uid); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.JSON(http.StatusOK, model.NewProfileView(a, bookings, favourites, tours))
}

type updateProfileReq struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Description string `json:"description"`
}

// UpdateProfile handles PUT /v1/accounts/:id. Accounts may only edit
// themselves; the role is immutable once set and cannot be changed here.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	target, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if target != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email required"})
	}
	a, err := h.Accounts.UpdateProfile(c.Request().Context(), uid, req.Username, req.Email, req.Phone, req.Description)
	if err != nil {
		if err == repository.ErrAccountExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username or email already taken"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update profile failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":          a.ID,
		"username":    a.Username,
		"email":       a.Email,
		"phone":       a.Phone,
		"description": a.Description,
	})
}

// AddFavourite handles POST /v1/favourites/:tourId.
func (h *ProfileHandler) AddFavourite(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tourID, err := strconv.ParseUint(c.Param("tourId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Tours.GetByID(ctx, tourID); err != nil {
		if err == repository.ErrTourNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.Favourites.Add(ctx, uid, tourID); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "already favourited"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add favourite failed"})
	}
	return c.NoContent(http.StatusCreated)
}

// RemoveFavourite handles DELETE /v1/favourites/:tourId.
func (h *ProfileHandler) RemoveFavourite(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tourID, err := strconv.ParseUint(c.Param("tourId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Favourites.Remove(c.Request().Context(), uid, tourID); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "favourite not found"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListFavourites handles GET /v1/favourites.
func (h *ProfileHandler) ListFavourites(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Favourites.ListByAccount(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
