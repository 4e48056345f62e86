package middleware

import (
	"net/http"
	"strings"

	"post-management/internal/service"

	"github.com/labstack/echo/v4"
)

// Identity 已通過驗證的呼叫者
type Identity struct {
	ID    int
	Email string
}

// AuthedHandler 需要登入的 handler，呼叫者身分以參數傳入而非放在 context
type AuthedHandler func(c echo.Context, who Identity) error

// TokenVerifier *service.TokenManager 直接滿足
type TokenVerifier interface {
	VerifyAccessToken(token string) (*service.CustomClaims, error)
}

func extractIdentity(c echo.Context, tokens TokenVerifier) (Identity, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	claims, err := tokens.VerifyAccessToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}
	return Identity{ID: claims.ID, Email: claims.Email}, nil
}

// RequireAuth 驗證 Bearer token，失敗時回 401 且不會呼叫 next
func RequireAuth(tokens TokenVerifier) func(AuthedHandler) echo.HandlerFunc {
	return func(next AuthedHandler) echo.HandlerFunc {
		return func(c echo.Context) error {
			who, err := extractIdentity(c, tokens)
			if err != nil {
				return err
			}
			return next(c, who)
		}
	}
}
