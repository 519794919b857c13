package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// newServer 以 echo 建立測試用 API，並計算登入請求次數
func newServer(t *testing.T, login echo.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	e := echo.New()
	e.POST(LoginPath, func(c echo.Context) error {
		atomic.AddInt32(&hits, 1)
		return login(c)
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func blob(status int, body string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Blob(status, echo.MIMEApplicationJSON, []byte(body))
	}
}

func TestAttemptLoginSuccess(t *testing.T) {
	const body = `{"token":"abc","user":{"id":1}}`
	srv, hits := newServer(t, func(c echo.Context) error {
		req := c.Request()
		require.Equal(t, "application/json", req.Header.Get(echo.HeaderContentType))
		require.Equal(t, "application/json", req.Header.Get(echo.HeaderAccept))
		raw, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.JSONEq(t, `{"email":"alice@example.com","password":"pw"}`, string(raw))
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(body))
	})

	res, err := New(srv.URL+"/").AttemptLogin(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)
	require.Equal(t, body, string(res.Body))
	require.Equal(t, "abc", res.Token)
	require.JSONEq(t, `{"id":1}`, string(res.User))
	require.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestAttemptLoginWithoutUser(t *testing.T) {
	srv, _ := newServer(t, blob(http.StatusCreated, `{"token":"abc","user":null}`))

	res, err := New(srv.URL).AttemptLogin(context.Background(), "a", "b")
	require.NoError(t, err)
	require.Equal(t, "abc", res.Token)
	require.Nil(t, res.User)
}

func TestAttemptLoginAuthenticationFailure(t *testing.T) {
	cases := []struct {
		name    string
		handler echo.HandlerFunc
		status  int
		message string
	}{
		{"server message", blob(http.StatusUnauthorized, `{"error":"invalid credentials"}`), http.StatusUnauthorized, "invalid credentials"},
		{"empty body", func(c echo.Context) error { return c.NoContent(http.StatusInternalServerError) }, http.StatusInternalServerError, DefaultFailureMessage},
		{"non json body", func(c echo.Context) error { return c.String(http.StatusBadGateway, "<html>bad gateway</html>") }, http.StatusBadGateway, DefaultFailureMessage},
		{"no error field", blob(http.StatusForbidden, `{"message":"nope"}`), http.StatusForbidden, DefaultFailureMessage},
		{"empty error field", blob(http.StatusBadRequest, `{"error":""}`), http.StatusBadRequest, DefaultFailureMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, hits := newServer(t, tc.handler)
			res, err := New(srv.URL).AttemptLogin(context.Background(), "a", "b")
			require.Nil(t, res)

			var authErr *AuthenticationFailure
			require.ErrorAs(t, err, &authErr)
			require.Equal(t, tc.status, authErr.StatusCode)
			require.EqualError(t, err, tc.message)

			var transportErr *TransportError
			require.False(t, errors.As(err, &transportErr))
			require.Equal(t, int32(1), atomic.LoadInt32(hits))
		})
	}
}

func TestAttemptLoginMalformedSuccess(t *testing.T) {
	cases := map[string]string{
		"html":          "<html>ok</html>",
		"empty":         "",
		"missing token": `{"user":{"id":1}}`,
		"empty token":   `{"token":""}`,
		"token number":  `{"token":42}`,
		"array":         `["abc"]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := newServer(t, func(c echo.Context) error {
				return c.Blob(http.StatusOK, echo.MIMETextPlain, []byte(body))
			})
			res, err := New(srv.URL).AttemptLogin(context.Background(), "a", "b")
			require.Nil(t, res)

			var transportErr *TransportError
			require.ErrorAs(t, err, &transportErr)
			require.ErrorIs(t, err, ErrMalformedResponse)
			require.Equal(t, "decode response", transportErr.Op)
		})
	}
}

func TestAttemptLoginConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res, err := New(url).AttemptLogin(context.Background(), "a", "b")
	require.Nil(t, res)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, "do request", transportErr.Op)
	require.NotErrorIs(t, err, ErrMalformedResponse)
}

func TestAttemptLoginMissingCredentials(t *testing.T) {
	srv, hits := newServer(t, blob(http.StatusOK, `{"token":"abc"}`))
	c := New(srv.URL)

	_, err := c.AttemptLogin(context.Background(), "", "b")
	require.ErrorIs(t, err, ErrMissingCredentials)
	_, err = c.AttemptLogin(context.Background(), "a", "")
	require.ErrorIs(t, err, ErrMissingCredentials)
	require.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestAttemptLoginCanceledContext(t *testing.T) {
	srv, _ := newServer(t, blob(http.StatusOK, `{"token":"abc"}`))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL).AttemptLogin(ctx, "a", "b")
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWithTimeout(t *testing.T) {
	srv, _ := newServer(t, func(c echo.Context) error {
		time.Sleep(200 * time.Millisecond)
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(`{"token":"abc"}`))
	})

	for name, opts := range map[string]func(*http.Client) []Option{
		"client first": func(hc *http.Client) []Option {
			return []Option{WithHTTPClient(hc), WithTimeout(20 * time.Millisecond)}
		},
		"timeout first": func(hc *http.Client) []Option {
			return []Option{WithTimeout(20 * time.Millisecond), WithHTTPClient(hc)}
		},
	} {
		t.Run(name, func(t *testing.T) {
			base := &http.Client{}
			c := New(srv.URL, opts(base)...)
			require.Zero(t, base.Timeout)

			_, err := c.AttemptLogin(context.Background(), "a", "b")
			var transportErr *TransportError
			require.ErrorAs(t, err, &transportErr)
		})
	}
}

func TestFetchProfile(t *testing.T) {
	e := echo.New()
	e.GET(ProfilePath, func(c echo.Context) error {
		switch c.Request().Header.Get(echo.HeaderAuthorization) {
		case "Bearer good":
			return c.JSON(http.StatusOK, map[string]any{"id": 1, "email": "alice@example.com"})
		case "Bearer garbled":
			return c.String(http.StatusOK, "not json")
		default:
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		}
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	c := New(srv.URL)

	user, err := c.FetchProfile(context.Background(), "good")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(user, &got))
	require.Equal(t, "alice@example.com", got["email"])

	_, err = c.FetchProfile(context.Background(), "stale")
	var authErr *AuthenticationFailure
	require.ErrorAs(t, err, &authErr)
	require.True(t, authErr.Unauthorized())
	require.EqualError(t, err, "invalid token")

	_, err = c.FetchProfile(context.Background(), "garbled")
	require.ErrorIs(t, err, ErrMalformedResponse)

	_, err = c.FetchProfile(context.Background(), "")
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestTransportErrorMessage(t *testing.T) {
	err := &TransportError{Op: "do request", Err: errors.New("refused")}
	require.Equal(t, "transport error: do request: refused", err.Error())
	require.Equal(t, "refused", errors.Unwrap(err).Error())
}
