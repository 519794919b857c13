package authclient

import (
	"errors"
	"fmt"
	"net/http"
)

// DefaultFailureMessage 伺服器未提供 error 欄位時使用的訊息
const DefaultFailureMessage = "login failed"

var (
	// ErrMissingCredentials 帳號或密碼為空，請求不會送出
	ErrMissingCredentials = errors.New("identifier and secret are required")
	// ErrMalformedResponse 2xx 回應無法解析，或缺少 token
	ErrMalformedResponse = errors.New("malformed response")
)

// TransportError 表示 HTTP 交換本身失敗：連線、讀取或解析回應
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthenticationFailure 表示伺服器回傳非 2xx 狀態碼
type AuthenticationFailure struct {
	StatusCode int
	Message    string
}

func (e *AuthenticationFailure) Error() string { return e.Message }

// Unauthorized 回報是否為 401，呼叫端據此清除失效的憑證
func (e *AuthenticationFailure) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}
