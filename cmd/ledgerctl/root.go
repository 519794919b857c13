package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"pocket-ledger/internal/authclient"
	"pocket-ledger/internal/cache"
	"pocket-ledger/internal/config"
	"pocket-ledger/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newRedisClient 供測試替換
var newRedisClient = cache.NewRedisClient

// app 保存各子命令共用的相依物件，於 PersistentPreRunE 建立
type app struct {
	cfg     config.Client
	verbose bool
	errOut  io.Writer

	logger *zap.Logger
	client *authclient.Client
	store  session.Store
	closer io.Closer
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	cfg, cfgErr := config.FromEnv()
	a.cfg = cfg

	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "pocket-ledger 登入與 token 管理工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return cfgErr
			}
			return a.init()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfg.BaseURL, "base-url", cfg.BaseURL, "API 位址 (LEDGER_API_URL)")
	flags.StringVar(&a.cfg.SessionFile, "session-file", cfg.SessionFile, "session 檔案路徑 (LEDGER_SESSION_FILE)")
	flags.StringVar(&a.cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "設定後改以 Redis 保存 session (REDIS_ADDR)")
	flags.IntVar(&a.cfg.RedisDB, "redis-db", cfg.RedisDB, "Redis 資料庫編號 (REDIS_DB)")
	flags.StringVar(&a.cfg.RedisPassword, "redis-password", cfg.RedisPassword, "Redis 密碼 (REDIS_PASSWORD)")
	flags.DurationVar(&a.cfg.Timeout, "timeout", cfg.Timeout, "HTTP 請求逾時 (LEDGER_HTTP_TIMEOUT)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "輸出 debug log")

	root.AddCommand(
		newLoginCmd(a),
		newWhoamiCmd(a),
		newTokenCmd(a),
		newClearAuthCmd(a),
	)
	return root, a
}

// run 執行命令並在結束時釋放 logger 與 Redis 連線；log 一律寫到 errOut
func run(args []string, out, errOut io.Writer) error {
	root, a := newRootCmd()
	a.errOut = errOut
	defer a.close()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.Execute()
}

// newLogger 建立寫到 errOut 的 JSON logger，verbose 時開啟 debug
func newLogger(errOut io.Writer, verbose bool) *zap.Logger {
	if errOut == nil {
		errOut = io.Discard
	}
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(errOut),
		level,
	)
	return zap.New(core, zap.AddCaller())
}

func (a *app) init() error {
	logger := newLogger(a.errOut, a.verbose)
	a.logger = logger

	a.client = authclient.New(a.cfg.BaseURL,
		authclient.WithTimeout(a.cfg.Timeout),
		authclient.WithLogger(logger),
	)
	logger.Debug("api client ready", zap.String("base_url", a.client.BaseURL()))

	if a.cfg.RedisAddr == "" {
		fs := session.NewFileStore(a.cfg.SessionFile)
		a.store = fs
		logger.Debug("using file session store", zap.String("path", fs.Path()))
		return nil
	}

	c, err := newRedisClient(a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("Redis 連線失敗: %w", err)
	}
	a.closer = c
	a.store = session.NewRedisStore(c, "", 0)
	logger.Debug("using redis session store", zap.String("addr", a.cfg.RedisAddr))
	return nil
}

func (a *app) close() {
	if a.closer != nil {
		if err := a.closer.Close(); err != nil && a.logger != nil {
			a.logger.Warn("close session backend", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// printJSON 以縮排輸出 JSON，無法解析時原樣輸出
func printJSON(w io.Writer, raw json.RawMessage) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		fmt.Fprintln(w, string(raw))
		return
	}
	fmt.Fprintln(w, buf.String())
}
