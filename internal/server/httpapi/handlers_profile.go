package httpapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/vidkeeper/internal/server/forms"
	"github.com/dmitrijs2005/vidkeeper/internal/server/metrics"
)

func (s *Server) showProfile(c echo.Context) error {
	account := currentAccount(c)

	count, err := s.videos.CountByOwner(c.Request().Context(), account.ID)
	if err != nil {
		return err
	}

	data := s.page(c, account.Username)
	data.Profile = account
	data.VideoCount = count
	return c.Render(http.StatusOK, "profile", data)
}

func (s *Server) editProfilePage(c echo.Context) error {
	account := currentAccount(c)

	data := s.page(c, "Edit profile")
	data.Profile = account
	data.Form = forms.ProfileForm{Username: account.Username, Email: account.Email}
	return c.Render(http.StatusOK, "profile_edit", data)
}

// updateProfile ends the session on success since it is bound to the old
// username.
func (s *Server) updateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	account := currentAccount(c)

	form := forms.ProfileForm{
		Username: c.FormValue("username"),
		Email:    c.FormValue("email"),
	}
	form.Normalize()

	data := s.page(c, "Edit profile")
	data.Profile = account
	data.Form = form

	if errs := form.Validate(); !errs.Empty() {
		data.Errors = errs
		return c.Render(http.StatusOK, "profile_edit", data)
	}

	updated, err := s.accounts.Update(ctx, account, form.Username, form.Email)
	if err != nil {
		errs, ok := conflictErrors(err)
		if !ok {
			return err
		}
		data.Errors = errs
		return c.Render(http.StatusOK, "profile_edit", data)
	}

	s.logger.Info(ctx, "profile updated", "account_id", updated.ID)

	return c.Redirect(http.StatusSeeOther, "/logout")
}

func (s *Server) deleteProfile(c echo.Context) error {
	ctx := c.Request().Context()
	account := currentAccount(c)

	if err := s.accounts.Delete(ctx, account.ID); err != nil {
		s.metrics.AuthEvent(metrics.EventAccountDelete, false)
		return err
	}

	s.metrics.AuthEvent(metrics.EventAccountDelete, true)
	s.logger.Info(ctx, "account deleted", "account_id", account.ID)

	c.Set(sessionKey, s.sessions.Clear())
	s.clearSessionCookie(c)
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (s *Server) exportProfile(c echo.Context) error {
	account := currentAccount(c)

	res, err := s.exports.Export(c.Request().Context(), account)
	if err != nil {
		return err
	}

	if res.URL != "" {
		return c.Redirect(http.StatusSeeOther, res.URL)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.Filename))
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, res.Body)
}
