package testserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/virtual_vend/models"
	"github.com/Skotchmaster/virtual_vend/pkg/logging"
)

const (
	ctxUserID = "user_id"
	ctxToken  = "access_token"
)

func tokenNotValid(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"detail": "Given token not valid for any token type",
		"code":   "token_not_valid",
	})
}

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context())

		raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		if !ok || raw == "" {
			l.Warn("auth_failed", "reason", "missing bearer token")
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"detail": "Authentication credentials were not provided.",
			})
		}

		claims, err := parseToken(raw, s.secret, tokenAccess)
		if err != nil {
			l.Warn("auth_failed", "reason", "invalid access token", "error", err)
			return tokenNotValid(c)
		}

		s.mu.Lock()
		deny, gen := s.deny, s.gen
		_, known := s.users[claims.UserID]
		s.mu.Unlock()

		if deny || claims.Gen < gen || !known {
			l.Warn("auth_failed", "reason", "access token rejected", "user_id", claims.UserID)
			return tokenNotValid(c)
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxToken, raw)
		return next(c)
	}
}

func requireRole(role models.Role, s *Server) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, _ := c.Get(ctxUserID).(int)

			s.mu.Lock()
			u, ok := s.users[uid]
			var got models.Role
			if ok {
				got = u.Role
			}
			s.mu.Unlock()

			if got != role {
				return fail(c, http.StatusForbidden, fmt.Sprintf("You need to be a %s to perform this action", role))
			}
			return next(c)
		}
	}
}

func requestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			l := base.With(
				"method", c.Request().Method,
				"path", c.Path(),
				"url", c.Request().URL.Path,
				"request_id", rid,
			)
			c.SetRequest(c.Request().WithContext(logging.IntoContext(c.Request().Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			dur := time.Since(start).Milliseconds()
			switch {
			case err != nil || status >= 500:
				l.Error("request completed", "status", status, "duration_ms", dur, "error", err)
			case status >= 400:
				l.Warn("request completed", "status", status, "duration_ms", dur)
			default:
				l.Info("request completed", "status", status, "duration_ms", dur, "bytes", c.Response().Size)
			}
			return nil
		}
	}
}
