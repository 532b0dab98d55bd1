package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runWithRole(t *testing.T, mw echo.MiddlewareFunc, role interface{}) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/scan/redeem", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}
	h := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	require.NoError(t, h(c))
	return rec
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole("admin", "event_manager")

	assert.Equal(t, http.StatusOK, runWithRole(t, mw, "admin").Code)
	assert.Equal(t, http.StatusOK, runWithRole(t, mw, "event_manager").Code)
	assert.Equal(t, http.StatusForbidden, runWithRole(t, mw, "user").Code)
	assert.Equal(t, http.StatusForbidden, runWithRole(t, mw, "superadmin").Code)
}

func TestRequireRole_MissingOrMalformed(t *testing.T) {
	mw := RequireRole("admin")

	// No role in context at all.
	assert.Equal(t, http.StatusForbidden, runWithRole(t, mw, nil).Code)
	// Role stored as a non-string value.
	assert.Equal(t, http.StatusForbidden, runWithRole(t, mw, 42).Code)
}
