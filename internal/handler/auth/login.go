package auth

import (
	"errors"
	"fmt"
	"net/http"

	"pocket-ledger/internal/database"
	"pocket-ledger/internal/dto"
	"pocket-ledger/internal/service"
	"pocket-ledger/internal/store"

	"github.com/labstack/echo/v4"
)

const invalidCredentials = "invalid credentials"

// LoginHandler 使用 Email/Password 驗證並回傳 JWT 與使用者資料
// @Summary     登入使用者
// @Description 使用 Email 與 Password 進行驗證，回傳存取令牌與使用者資料
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       body body     dto.LoginRequest true "登入資料"
// @Success     200  {object} dto.LoginResponse
// @Failure     400  {object} dto.HTTPError
// @Failure     401  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Router      /auth/login [post]
func LoginHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req dto.LoginRequest
		// 先 Bind
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Error: fmt.Sprintf("無效的請求資料: %v", err)})
		}
		// 再驗證結構化參數 (go-playground/validator)
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Error: err.Error()})
		}

		ctx := c.Request().Context()
		user, err := store.GetUserByEmail(ctx, db, req.Email)
		if errors.Is(err, store.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, dto.HTTPError{Error: invalidCredentials})
		}
		if err != nil {
			c.Logger().Errorf("login lookup: %v", err)
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Error: "internal error"})
		}

		if err := service.AuthenticateUser(ctx, *user, req.Password); err != nil {
			return c.JSON(http.StatusUnauthorized, dto.HTTPError{Error: invalidCredentials})
		}

		token, err := service.IssueAccessToken(*user, service.AccessTokenTTL)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Error: fmt.Sprintf("failed to issue token: %v", err)})
		}

		return c.JSON(http.StatusOK, dto.LoginResponse{Token: token, User: dto.NewUserResponse(*user)})
	}
}
