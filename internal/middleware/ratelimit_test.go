package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/tour-booking/internal/config"
)

func rateKeyContext(t *testing.T, claim interface{}) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/tours", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if claim != nil {
		c.Set("user_id", claim)
	}
	return c
}

func TestCurrentUserIDNormalizesClaimKinds(t *testing.T) {
	cases := []struct {
		name  string
		claim interface{}
		want  string
	}{
		// JSON decoding hands the sub claim over as float64.
		{"float64 sub", float64(42), "42"},
		{"string sub", "42", "42"},
		{"uint64 sub", uint64(42), "42"},
		{"int sub", 42, "42"},
		{"unauthenticated", nil, "anon"},
		{"empty string", "", "anon"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, currentUserID(rateKeyContext(t, tc.claim)))
		})
	}
}

func TestBuildRateKeyUsesAccountForUserStrategy(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}
	c := rateKeyContext(t, float64(7))

	assert.Equal(t, "rl:user:7", buildRateKey(cfg, c))
}
