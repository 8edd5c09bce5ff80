package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-client/apierror"
	"github.com/jrsteele09/go-auth-client/client"
	"github.com/jrsteele09/go-auth-client/gateway"
	"github.com/jrsteele09/go-auth-client/oauth2"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/token"
)

type env struct {
	client *client.Client
	out    io.Writer
}

type command struct {
	summary string
	banner  bool
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"status":        {summary: "show the restored session", banner: true, run: statusCmd},
	"login":         {summary: "log in with -username and -password", banner: true, run: loginCmd},
	"google":        {summary: "log in with a Google ID token (-token)", run: googleCmd},
	"me":            {summary: "fetch the current identity", run: meCmd},
	"get":           {summary: "send an authenticated GET to a path", run: getCmd},
	"logout":        {summary: "clear the session", run: logoutCmd},
	"request-reset": {summary: "mail a password reset link (-email)", run: requestResetCmd},
	"reset":         {summary: "set a new password (-token, -password)", run: resetCmd},
}

func usage(out io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(out, "usage: authctl <command> [flags]")
	fmt.Fprintln(out)
	for _, name := range names {
		fmt.Fprintf(out, "  %-14s %s\n", name, commands[name].summary)
	}
}

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func statusCmd(_ context.Context, e *env, _ []string) error {
	snap := e.client.Store().Snapshot()
	fmt.Fprintf(e.out, "status: %s\n", snap.Status)
	if snap.User != nil {
		fmt.Fprintf(e.out, "user:   %s <%s>\n", snap.User.Username, snap.User.Email)
		if icon := snap.User.IconURL(e.client.BaseURL()); icon != "" {
			fmt.Fprintf(e.out, "icon:   %s\n", icon)
		}
	}
	if claims, err := token.Inspect(snap.Tokens.AccessToken); err == nil && !claims.ExpiresAt.IsZero() {
		state := "valid"
		if claims.Expired(time.Now(), 0) {
			state = "expired, refreshed on next request"
		}
		fmt.Fprintf(e.out, "token:  expires %s (%s)\n", claims.ExpiresAt.Format(time.RFC3339), state)
	}
	return nil
}

func loginCmd(ctx context.Context, e *env, args []string) error {
	fs := newFlags("login")
	username := fs.String("username", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	err := e.client.Session().Login(ctx, oauth2.LoginRequest{Username: *username, Password: *password})
	if err != nil {
		return describe(err)
	}
	return statusCmd(ctx, e, nil)
}

func googleCmd(ctx context.Context, e *env, args []string) error {
	fs := newFlags("google")
	token := fs.String("token", "", "Google ID token")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := e.client.Session().LoginGoogle(ctx, *token); err != nil {
		return describe(err)
	}
	return statusCmd(ctx, e, nil)
}

func meCmd(ctx context.Context, e *env, _ []string) error {
	if !e.client.Store().IsAuthenticated() {
		return fmt.Errorf("not logged in")
	}
	user, err := e.client.API().Me(ctx)
	if err != nil {
		return describe(err)
	}
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(user)
}

func getCmd(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 || !strings.HasPrefix(args[0], "/") {
		return fmt.Errorf("get needs one path starting with /")
	}
	resp, err := e.client.Do(ctx, &gateway.Request{Method: http.MethodGet, Path: args[0]})
	if err != nil {
		return describe(err)
	}
	_, err = e.out.Write(append(resp.Body, '\n'))
	return err
}

func logoutCmd(ctx context.Context, e *env, _ []string) error {
	e.client.Session().Logout(ctx)
	fmt.Fprintf(e.out, "status: %s\n", session.StatusUnauthenticated)
	return nil
}

func requestResetCmd(ctx context.Context, e *env, args []string) error {
	fs := newFlags("request-reset")
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := e.client.Session().RequestPasswordReset(ctx, *email); err != nil {
		return describe(err)
	}
	fmt.Fprintln(e.out, "If the account exists a reset link has been sent.")
	return nil
}

func resetCmd(ctx context.Context, e *env, args []string) error {
	fs := newFlags("reset")
	token := fs.String("token", "", "token from the reset link")
	password := fs.String("password", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := e.client.Session().ResetPassword(ctx, *token, *password); err != nil {
		return describe(err)
	}
	fmt.Fprintln(e.out, "Password updated.")
	return nil
}

// describe turns any failure into the normalized message, keeping the
// partial login marker visible.
func describe(err error) error {
	normalized := apierror.Normalize(err)
	if errors.Is(err, session.ErrPartialLogin) {
		return fmt.Errorf("%w: %s", session.ErrPartialLogin, normalized.Message)
	}
	return fmt.Errorf("%s [%s]", normalized.Message, normalized.Code)
}
