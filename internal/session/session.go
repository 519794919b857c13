// Package session 保存登入後的 bearer token 與使用者資料。
//
// 呼叫端透過 Store 介面注入實作，不直接存取全域狀態。
package session

import (
	"context"
	"encoding/json"
	"errors"

	"pocket-ledger/internal/authclient"
)

// 兩個邏輯 key：token 與 user
const (
	TokenKey = "token"
	UserKey  = "user"
)

var (
	// ErrNoSession 尚未儲存任何 session
	ErrNoSession = errors.New("no stored session")
	// ErrEmptyToken Set 時 token 為空
	ErrEmptyToken = errors.New("session token is empty")
)

type Session struct {
	Token string
	// User 序列化的使用者資料，可為 nil
	User json.RawMessage
}

type Store interface {
	Get(ctx context.Context) (*Session, error)
	Set(ctx context.Context, s *Session) error
	Clear(ctx context.Context) error
}

// FromLogin 由登入結果建立 Session
func FromLogin(res *authclient.Result) *Session {
	return &Session{Token: res.Token, User: res.User}
}

func validate(s *Session) error {
	if s == nil || s.Token == "" {
		return ErrEmptyToken
	}
	if len(s.User) > 0 && !json.Valid(s.User) {
		return errors.New("session user is not valid JSON")
	}
	return nil
}

func clone(s *Session) *Session {
	c := &Session{Token: s.Token}
	if len(s.User) > 0 {
		c.User = append(json.RawMessage(nil), s.User...)
	}
	return c
}
