package auth

import (
	"errors"
	"net/http"

	"pocket-ledger/internal/database"
	"pocket-ledger/internal/dto"
	"pocket-ledger/internal/middleware"
	"pocket-ledger/internal/store"

	"github.com/labstack/echo/v4"
)

// MeHandler 取得當前使用者資訊
// @Summary     Get current user info
// @Tags        auth
// @Produce     json
// @Success     200 {object} dto.UserResponse
// @Failure     401 {object} dto.HTTPError
// @Failure     500 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /auth/me [get]
func MeHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := middleware.ClaimsFrom(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, dto.HTTPError{Error: "invalid or missing token"})
		}

		user, err := store.GetUserByID(c.Request().Context(), db, claims.UserID)
		// token 有效但使用者已刪除，視同未登入
		if errors.Is(err, store.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, dto.HTTPError{Error: "user no longer exists"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Error: err.Error()})
		}
		return c.JSON(http.StatusOK, dto.NewUserResponse(*user))
	}
}
