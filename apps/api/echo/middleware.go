package echoapi

import (
	"github.com/labstack/echo/v4"
)

// requireRole admits the authenticated principal only if it holds exactly the given role.
func requireRole(role string) echo.MiddlewareFunc {
	forbidden := errForbidden(role)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return err
			}
			if usr.HasRole(role) {
				return next(ctx)
			}
			return forbidden
		}
	}
}
