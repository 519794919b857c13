// Package config 讀取 ledgerctl 的環境變數設定。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 10 * time.Second
)

// Client 為 ledgerctl 的設定，命令列參數會覆寫這些值
type Client struct {
	BaseURL       string
	SessionFile   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Timeout       time.Duration
}

// userHomeDir 供測試替換
var userHomeDir = os.UserHomeDir

// DefaultSessionFile 回傳 $HOME/.pocket-ledger/session.yaml，取不到 HOME 時使用目前目錄
func DefaultSessionFile() string {
	home, err := userHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".pocket-ledger", "session.yaml")
	}
	return filepath.Join(home, ".pocket-ledger", "session.yaml")
}

// FromEnv 以預設值為基礎套用環境變數
func FromEnv() (Client, error) {
	cfg := Client{
		BaseURL:     DefaultBaseURL,
		SessionFile: DefaultSessionFile(),
		Timeout:     DefaultTimeout,
	}

	if v := os.Getenv("LEDGER_API_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("LEDGER_SESSION_FILE"); v != "" {
		cfg.SessionFile = v
	}
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil || db < 0 {
			return Client{}, fmt.Errorf("無效的 REDIS_DB: %q", v)
		}
		cfg.RedisDB = db
	}

	if v := os.Getenv("LEDGER_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Client{}, fmt.Errorf("無效的 LEDGER_HTTP_TIMEOUT: %q", v)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}
