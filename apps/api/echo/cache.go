package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// cached serves key from the cache if it is younger than ttl; otherwise it loads, stores and serves a fresh value.
func (s *Server) cached(ctx echo.Context, key string, ttl time.Duration, load func() (interface{}, error)) error {
	if val, ok := s.deps.Cache.Get(key, ttl); ok {
		return ctx.JSON(http.StatusOK, val)
	}
	val, err := load()
	if err != nil {
		return err
	}
	s.deps.Cache.Set(key, val)
	return ctx.JSON(http.StatusOK, val)
}
