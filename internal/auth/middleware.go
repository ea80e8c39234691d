package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/household-ledger/internal/approval"
)

const ContextActorKey = "actor"

const CookieName = "token"

// Middleware проверяет токен сессии (cookie или Bearer) и кладет
// approval.Actor в контекст запроса.
func Middleware(manager *TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := extractToken(c)
			if tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing credentials")
			}

			claims, err := manager.Parse(tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
			}

			c.Set(ContextActorKey, approval.Actor{
				ID:          userID,
				DisplayName: claims.DisplayName,
				IsAdmin:     claims.IsAdmin,
			})
			return next(c)
		}
	}
}

// AdminMiddleware пропускает только администраторов.
func AdminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFromContext(c)
			if !ok || !actor.IsAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}
			return next(c)
		}
	}
}

// ActorFromContext извлекает аутентифицированного принципала из контекста.
func ActorFromContext(c echo.Context) (approval.Actor, bool) {
	actor, ok := c.Get(ContextActorKey).(approval.Actor)
	return actor, ok
}

// Фронтенд ходит с cookie, скрипты и тесты — с Bearer-заголовком.
func extractToken(c echo.Context) string {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
