package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"pocket-ledger/internal/authclient"
	"pocket-ledger/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errNotLoggedIn = errors.New("not logged in, run `ledgerctl login` first")

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "以 email/password 登入並保存 token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("LEDGER_PASSWORD")
			}
			res, err := a.client.AttemptLogin(cmd.Context(), email, password)
			if err != nil {
				var authErr *authclient.AuthenticationFailure
				if errors.As(err, &authErr) {
					a.logger.Debug("login rejected", zap.Int("status", authErr.StatusCode))
					return fmt.Errorf("login rejected: %s", authErr.Message)
				}
				return err
			}

			if err := a.store.Set(cmd.Context(), session.FromLogin(res)); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "logged in")
			if res.User != nil {
				printJSON(out, res.User)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "登入 email")
	cmd.Flags().StringVar(&password, "password", "", "登入密碼，未指定時讀取 LEDGER_PASSWORD")
	return cmd
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "以保存的 token 查詢目前使用者，token 失效時清除",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.store.Get(ctx)
			if errors.Is(err, session.ErrNoSession) {
				return errNotLoggedIn
			}
			if err != nil {
				return err
			}

			profile, err := a.client.FetchProfile(ctx, s.Token)
			var authErr *authclient.AuthenticationFailure
			if errors.As(err, &authErr) && authErr.Unauthorized() {
				if clearErr := a.store.Clear(ctx); clearErr != nil {
					return fmt.Errorf("clear stale session: %w", clearErr)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "stale token cleared")
				return fmt.Errorf("session expired: %s", authErr.Message)
			}
			if err != nil {
				return err
			}

			// 順便更新保存的使用者資料
			if err := a.store.Set(ctx, &session.Session{Token: s.Token, User: profile}); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			printJSON(cmd.OutOrStdout(), profile)
			return nil
		},
	}
}

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "檢視或手動設定保存的 token",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "顯示保存的 token 與使用者",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store.Get(cmd.Context())
			if errors.Is(err, session.ErrNoSession) {
				return errNotLoggedIn
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "token: %s\n", s.Token)
			if len(s.User) > 0 {
				fmt.Fprint(out, "user: ")
				printJSON(out, s.User)
			}
			return nil
		},
	}

	var user string
	set := &cobra.Command{
		Use:   "set <token>",
		Short: "手動寫入 token，可附帶使用者 JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := &session.Session{Token: args[0]}
			if user != "" {
				if !json.Valid([]byte(user)) {
					return fmt.Errorf("--user is not valid JSON")
				}
				s.User = json.RawMessage(user)
			}
			if err := a.store.Set(cmd.Context(), s); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token saved")
			return nil
		},
	}
	set.Flags().StringVar(&user, "user", "", "使用者 JSON，例如 '{\"id\":1}'")

	cmd.AddCommand(show, set)
	return cmd
}

func newClearAuthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-auth",
		Short: "清除保存的 token 與使用者",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "session cleared")
			return nil
		},
	}
}
