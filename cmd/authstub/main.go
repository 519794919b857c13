// Command authstub 提供本機開發用的登入 API，供 ledgerctl 與前端測試。
//
// @title        Pocket Ledger Auth Stub
// @version      1.0
// @description  本機開發用登入 API
// @host         localhost:8080
// @BasePath     /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
package main

import (
	"os"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// CustomValidator wraps go-playground/validator for Echo
// swagger:ignore
type CustomValidator struct {
	validator *validator.Validate
}

// Validate calls the underlying validator
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

var (
	newLogger = zap.NewProduction
	exitFunc  = os.Exit
)

func main() {
	logger, err := newLogger()
	if err != nil {
		logger = zap.NewNop()
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		logger.Error("authstub stopped", zap.Error(err))
		exitFunc(1)
	}
}
