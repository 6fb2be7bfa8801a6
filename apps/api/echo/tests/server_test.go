package tests

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/copo/core/user"
)

const frontendOrigin = "http://localhost:3000"

func Test_server_cors(t *testing.T) {
	app := setup(t)
	admin := app.token(t, app.createUser(t, "Carol", "carol@test.edu", user.RoleAdmin))

	t.Run("preflight", func(t *testing.T) {
		req, rec := newRequest(http.MethodOptions, "/api/programs")
		req.Header.Set(echo.HeaderOrigin, frontendOrigin)
		req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
		req.Header.Set(echo.HeaderAccessControlRequestHeaders, "Authorization,Content-Type")
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		hdr := rec.Header()
		assert.Contains(t, []string{frontendOrigin, "*"}, hdr.Get(echo.HeaderAccessControlAllowOrigin))
		assert.Equal(t, "true", hdr.Get(echo.HeaderAccessControlAllowCredentials))
		assert.Contains(t, hdr.Get(echo.HeaderAccessControlAllowMethods), http.MethodPost)
		assert.Contains(t, hdr.Get(echo.HeaderAccessControlAllowMethods), http.MethodDelete)
		assert.Equal(t, "Authorization,Content-Type", hdr.Get(echo.HeaderAccessControlAllowHeaders))
	})

	t.Run("authenticated request", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/programs", admin)
		req.Header.Set(echo.HeaderOrigin, frontendOrigin)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, []string{frontendOrigin, "*"}, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
		assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
	})

	t.Run("errors carry cors headers", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/programs")
		req.Header.Set(echo.HeaderOrigin, frontendOrigin)
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	})
}
