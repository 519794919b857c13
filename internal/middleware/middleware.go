package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"pocket-ledger/internal/dto"
	"pocket-ledger/internal/service"

	"github.com/labstack/echo/v4"
)

const ContextUserKey = "user"

var (
	errMissingToken = errors.New("missing token")
	errHeaderFormat = errors.New("invalid authorization header format")
)

func extractClaims(c echo.Context) (*service.CustomClaims, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return nil, errMissingToken
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, errHeaderFormat
	}
	claims, err := service.VerifyAccessToken(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

// RequireAuth 驗證 bearer token，失敗回傳 401 {"error": ...}
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := extractClaims(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, dto.HTTPError{Error: err.Error()})
		}
		c.Set(ContextUserKey, claims)
		return next(c)
	}
}

// ClaimsFrom 取出 RequireAuth 放入的 claims
func ClaimsFrom(c echo.Context) (*service.CustomClaims, bool) {
	claims, ok := c.Get(ContextUserKey).(*service.CustomClaims)
	return claims, ok && claims != nil
}
