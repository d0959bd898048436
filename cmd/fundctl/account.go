package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-fundboard/pkg/api"
	"github.com/goliatone/go-fundboard/pkg/auth"
)

type loginCmd struct {
	Email    string `required:"" help:"Account email."`
	Password string `required:"" env:"FUNDBOARD_PASSWORD" help:"Account password (or FUNDBOARD_PASSWORD)."`
}

func (c *loginCmd) Run(rt *runtime) error {
	session, err := rt.Session()
	if err != nil {
		return err
	}
	user, err := session.Login(rt.ctx, c.Email, c.Password)
	if err != nil {
		return fmt.Errorf("fundctl: login: %w", err)
	}
	return rt.print(userView(user, session.ExpiresAt()), func() table {
		return userTable(user, session.ExpiresAt())
	})
}

type logoutCmd struct{}

func (c *logoutCmd) Run(rt *runtime) error {
	session, err := rt.Session()
	if err != nil {
		return err
	}
	if err := session.Logout(rt.ctx); err != nil {
		return err
	}
	fmt.Fprintln(rt.out, "signed out")
	return nil
}

type whoamiCmd struct{}

func (c *whoamiCmd) Run(rt *runtime) error {
	session, err := rt.Session()
	if err != nil {
		return err
	}
	user, ok := session.User()
	if !ok || !session.IsAuthenticated(time.Now()) {
		return auth.ErrNotAuthenticated
	}
	return rt.print(userView(user, session.ExpiresAt()), func() table {
		return userTable(user, session.ExpiresAt())
	})
}

type accountView struct {
	api.User
	Admin     bool       `json:"admin"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func userView(user api.User, expires time.Time) accountView {
	view := accountView{User: user, Admin: user.IsAdmin()}
	if !expires.IsZero() {
		view.ExpiresAt = &expires
	}
	return view
}

func userTable(user api.User, expires time.Time) table {
	t := table{columns: []string{"id", "name", "email", "role", "expiresAt"}}
	exp := "-"
	if !expires.IsZero() {
		exp = expires.Local().Format(time.DateTime)
	}
	t.add(user.ID, user.Name, user.Email, user.Role, exp)
	return t
}

type oauthURLCmd struct {
	Provider string `arg:"" help:"OAuth provider (google, line, ...)."`
}

func (c *oauthURLCmd) Run(rt *runtime) error {
	if strings.TrimSpace(c.Provider) == "" {
		return errors.New("fundctl: provider is required")
	}
	url, err := auth.OAuthURL(rt.cfg.APIURL, c.Provider)
	if err != nil {
		return err
	}
	fmt.Fprintln(rt.out, url)
	return nil
}
