package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/vidkeeper/internal/common"
	"github.com/dmitrijs2005/vidkeeper/internal/server/forms"
	"github.com/dmitrijs2005/vidkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/vidkeeper/internal/server/models"
)

func (s *Server) healthz(c echo.Context) error {
	if err := s.health.PingContext(c.Request().Context()); err != nil {
		s.logger.Warn(c.Request().Context(), "health check failed", "error", err.Error())
		return c.String(http.StatusServiceUnavailable, "unavailable")
	}
	return c.String(http.StatusOK, "ok")
}

// authenticated returns the account of the session, nil for anonymous
// visitors. A cookie whose account is gone is cleared.
func (s *Server) authenticated(c echo.Context) (*models.Account, error) {
	sess := session(c)
	account, err := s.gate.RequireAuthenticated(c.Request().Context(), sess)
	if errors.Is(err, common.ErrorUnauthenticated) {
		if sess.Authenticated() {
			c.Set(sessionKey, s.sessions.Clear())
			s.clearSessionCookie(c)
		}
		return nil, nil
	}
	return account, err
}

func profileURL(id int64) string {
	return fmt.Sprintf("/profile/%d", id)
}

func (s *Server) index(c echo.Context) error {
	account, err := s.authenticated(c)
	if err != nil {
		return err
	}
	if account != nil {
		return c.Redirect(http.StatusSeeOther, profileURL(account.ID))
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

// startSession issues the cookie for account and lands on its profile.
func (s *Server) startSession(c echo.Context, account *models.Account) error {
	token, err := s.sessions.Establish(account)
	if err != nil {
		return err
	}
	s.setSessionCookie(c, token)
	return c.Redirect(http.StatusSeeOther, profileURL(account.ID))
}

func (s *Server) signupPage(c echo.Context) error {
	account, err := s.authenticated(c)
	if err != nil {
		return err
	}
	if account != nil {
		return c.Redirect(http.StatusSeeOther, profileURL(account.ID))
	}

	data := s.page(c, "Sign up")
	data.Form = forms.SignupForm{}
	return c.Render(http.StatusOK, "signup", data)
}

func (s *Server) signup(c echo.Context) error {
	account, err := s.authenticated(c)
	if err != nil {
		return err
	}
	if account != nil {
		return c.Redirect(http.StatusSeeOther, profileURL(account.ID))
	}

	ctx := c.Request().Context()
	form := forms.SignupForm{
		Username: c.FormValue("username"),
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
		Confirm:  c.FormValue("confirm"),
	}
	form.Normalize()

	data := s.page(c, "Sign up")
	data.Form = forms.SignupForm{Username: form.Username, Email: form.Email}

	if errs := form.Validate(); !errs.Empty() {
		data.Errors = errs
		return c.Render(http.StatusOK, "signup", data)
	}

	created, err := s.accounts.Create(ctx, form.Username, form.Email, form.Password)
	if err != nil {
		errs, ok := conflictErrors(err)
		if !ok {
			return err
		}
		s.metrics.AuthEvent(metrics.EventSignup, false)
		data.Errors = errs
		return c.Render(http.StatusOK, "signup", data)
	}

	s.metrics.AuthEvent(metrics.EventSignup, true)
	s.logger.Info(ctx, "account created", "account_id", created.ID, "username", created.Username)

	return s.startSession(c, created)
}

func (s *Server) loginPage(c echo.Context) error {
	account, err := s.authenticated(c)
	if err != nil {
		return err
	}
	if account != nil {
		return c.Redirect(http.StatusSeeOther, profileURL(account.ID))
	}

	data := s.page(c, "Log in")
	data.Form = forms.LoginForm{}
	return c.Render(http.StatusOK, "login", data)
}

func (s *Server) login(c echo.Context) error {
	account, err := s.authenticated(c)
	if err != nil {
		return err
	}
	if account != nil {
		return c.Redirect(http.StatusSeeOther, profileURL(account.ID))
	}

	ctx := c.Request().Context()
	form := forms.LoginForm{
		Username: c.FormValue("username"),
		Password: c.FormValue("password"),
	}
	form.Normalize()

	fail := func() error {
		s.metrics.AuthEvent(metrics.EventLogin, false)
		s.logger.Warn(ctx, "login failed", "username", form.Username)
		data := s.page(c, "Log in")
		data.Form = forms.LoginForm{Username: form.Username}
		data.Message = common.ErrorInvalidCredentials.Error()
		return c.Render(http.StatusOK, "login", data)
	}

	if !form.Validate().Empty() {
		return fail()
	}

	authed, err := s.accounts.Authenticate(ctx, form.Username, form.Password)
	if errors.Is(err, common.ErrorInvalidCredentials) {
		return fail()
	}
	if err != nil {
		return err
	}

	s.metrics.AuthEvent(metrics.EventLogin, true)
	s.logger.Info(ctx, "login", "account_id", authed.ID)

	return s.startSession(c, authed)
}

func (s *Server) logout(c echo.Context) error {
	c.Set(sessionKey, s.sessions.Clear())
	s.clearSessionCookie(c)
	s.metrics.AuthEvent(metrics.EventLogout, true)
	return c.Redirect(http.StatusSeeOther, "/login")
}

// conflictErrors maps uniqueness failures to form errors.
func conflictErrors(err error) (forms.Errors, bool) {
	switch {
	case errors.Is(err, common.ErrorUsernameTaken):
		return forms.Errors{{Field: "username", Message: "Username already taken."}}, true
	case errors.Is(err, common.ErrorEmailTaken):
		return forms.Errors{{Field: "email", Message: "E-mail already registered."}}, true
	case errors.Is(err, common.ErrorConflict):
		return forms.Errors{{Field: "username", Message: "Username or e-mail already taken."}}, true
	default:
		return nil, false
	}
}
