package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"pocket-ledger/internal/database"
	"pocket-ledger/internal/model"
	"pocket-ledger/internal/router"
	"pocket-ledger/internal/service"
	"pocket-ledger/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	_ "pocket-ledger/docs" // 引入 swag 產出的 docs

	echoSwagger "github.com/swaggo/echo-swagger"
)

var (
	newPgxPool      = database.NewPgxPool
	runMigrationsFn = database.RunMigrations
	rollbackAllFn   = database.RollbackAll
	startServer     = func(e *echo.Echo, addr string) error { return e.Start(addr) }
)

func run(logger *zap.Logger) error {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return fmt.Errorf("環境變數 DATABASE_URL 未設定")
	}

	if os.Getenv("JWT_SECRET") == "" {
		return fmt.Errorf("環境變數 JWT_SECRET 未設定")
	}

	port := 8080
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 {
			return fmt.Errorf("無效的 PORT: %q", v)
		}
		port = p
	}

	// AUTHSTUB_RESET=1 先退回所有 migration，等同清空資料庫
	if os.Getenv("AUTHSTUB_RESET") == "1" {
		if err := rollbackAllFn(dbURL); err != nil {
			return fmt.Errorf("RollbackAll 失敗: %w", err)
		}
		logger.Warn("database reset", zap.String("env", "AUTHSTUB_RESET"))
	}

	if err := runMigrationsFn(dbURL); err != nil {
		return fmt.Errorf("Migration 執行失敗: %w", err)
	}

	db, err := newPgxPool(context.Background(), dbURL)
	if err != nil {
		return fmt.Errorf("DB 連線失敗: %w", err)
	}
	defer db.Close()

	seedEmail, seedPassword := os.Getenv("STUB_USER_EMAIL"), os.Getenv("STUB_USER_PASSWORD")
	if seedEmail != "" {
		if err := ensureSeedUser(context.Background(), db, seedEmail, seedPassword); err != nil {
			return fmt.Errorf("建立測試帳號失敗: %w", err)
		}
		logger.Info("seed user ready", zap.String("email", seedEmail))
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	router.Setup(e, db)

	// Swagger UI
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	addr := fmt.Sprintf(":%d", port)
	logger.Info("authstub listening", zap.String("addr", addr))
	return startServer(e, addr)
}

// ensureSeedUser 若帳號不存在則建立，已存在則不動
func ensureSeedUser(ctx context.Context, db database.DB, email, password string) error {
	if password == "" {
		return fmt.Errorf("STUB_USER_PASSWORD 未設定")
	}

	_, err := store.GetUserByEmail(ctx, db, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return err
	}

	hash, err := service.HashPassword(password)
	if err != nil {
		return err
	}
	name, _, _ := strings.Cut(email, "@")
	_, err = store.CreateUser(ctx, db, &model.User{Name: name, Email: email, PasswordHash: hash})
	return err
}
