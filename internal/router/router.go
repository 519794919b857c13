package router

import (
	"github.com/labstack/echo/v4"

	"pocket-ledger/internal/database"
	"pocket-ledger/internal/handler"
	"pocket-ledger/internal/handler/auth"
	"pocket-ledger/internal/middleware"
)

// Setup 註冊所有路由與中介層
func Setup(e *echo.Echo, db database.DB) {
	api := e.Group("/api")

	// 健康檢查
	api.GET("/ping", handler.PingHandler(db))

	// 使用者登入
	api.POST("/auth/login", auth.LoginHandler(db))
	api.GET("/auth/me", auth.MeHandler(db), middleware.RequireAuth)
}
