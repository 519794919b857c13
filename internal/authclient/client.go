// Package authclient 對 pocket-ledger API 發出登入請求並回報結構化結果。
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pocket-ledger/internal/dto"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	LoginPath   = "/api/auth/login"
	ProfilePath = "/api/auth/me"
)

// Result 為一次成功登入的結果
type Result struct {
	// Token 伺服器發行的 bearer token
	Token string
	// User 回應中的 user 物件，未提供時為 nil
	User json.RawMessage
	// Body 原封不動的回應內容
	Body json.RawMessage
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
	logger     *zap.Logger
	// timeout 為 nil 表示沿用 httpClient 自己的設定
	timeout *time.Duration
}

type Option func(*Client)

// WithHTTPClient 替換底層 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout 設定整個請求的逾時，d <= 0 表示不逾時。
// 與 WithHTTPClient 的順序無關，不會修改傳入的 http.Client。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		d = max(d, 0)
		c.timeout = &d
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New 建立 Client，baseURL 例如 "http://localhost:8080"
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		validate:   validator.New(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout != nil {
		hc := *c.httpClient
		hc.Timeout = *c.timeout
		c.httpClient = &hc
	}
	return c
}

// BaseURL 回傳正規化後的 API 位址
func (c *Client) BaseURL() string { return c.baseURL }

// AttemptLogin 送出一次登入請求。
// 成功回傳 *Result；非 2xx 回傳 *AuthenticationFailure；
// 連線失敗或回應無法解析回傳 *TransportError。不重試。
func (c *Client) AttemptLogin(ctx context.Context, identifier, secret string) (*Result, error) {
	req := dto.LoginRequest{Email: identifier, Password: secret}
	if err := c.validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingCredentials, err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Op: "encode request", Err: err}
	}

	status, body, err := c.do(ctx, http.MethodPost, LoginPath, payload, "")
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, newAuthenticationFailure(status, body)
	}
	return parseLoginBody(body)
}

// FetchProfile 以 bearer token 取得目前登入的使用者
func (c *Client) FetchProfile(ctx context.Context, token string) (json.RawMessage, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMissingCredentials)
	}

	status, body, err := c.do(ctx, http.MethodGet, ProfilePath, nil, token)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, newAuthenticationFailure(status, body)
	}
	if !json.Valid(body) {
		return nil, &TransportError{Op: "decode response", Err: ErrMalformedResponse}
	}
	return json.RawMessage(body), nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, token string) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, &TransportError{Op: "build request", Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("auth request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return 0, nil, &TransportError{Op: "do request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &TransportError{Op: "read response", Err: err}
	}

	c.logger.Debug("auth request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// newAuthenticationFailure 嘗試取出 body 的 error 欄位，失敗則用預設訊息
func newAuthenticationFailure(status int, body []byte) *AuthenticationFailure {
	msg := DefaultFailureMessage
	var payload dto.HTTPError
	if len(bytes.TrimSpace(body)) > 0 && json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &AuthenticationFailure{StatusCode: status, Message: msg}
}

func parseLoginBody(body []byte) (*Result, error) {
	var envelope struct {
		Token string          `json:"token"`
		User  json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &TransportError{Op: "decode response", Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if envelope.Token == "" {
		return nil, &TransportError{Op: "decode response", Err: fmt.Errorf("%w: missing token", ErrMalformedResponse)}
	}

	res := &Result{Token: envelope.Token, Body: json.RawMessage(body)}
	if len(envelope.User) > 0 && string(envelope.User) != "null" {
		res.User = envelope.User
	}
	return res, nil
}
