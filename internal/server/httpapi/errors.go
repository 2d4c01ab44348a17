package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/vidkeeper/internal/common"
	"github.com/dmitrijs2005/vidkeeper/internal/logging"
)

func statusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.Is(err, common.ErrorUnauthenticated):
		return http.StatusSeeOther
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.As(err, &he):
		return he.Code
	default:
		return http.StatusInternalServerError
	}
}

// handleError turns handler errors into pages. Unauthenticated requests are
// sent to the login page with their cookie cleared.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := statusFor(err)
	ctx := c.Request().Context()

	if status == http.StatusSeeOther {
		s.clearSessionCookie(c)
		if rerr := c.Redirect(http.StatusSeeOther, "/login"); rerr != nil {
			s.logger.Error(ctx, "redirect failed", logging.ErrorArgs(rerr)...)
		}
		return
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(ctx, "internal error", append([]any{"path", c.Path()}, logging.ErrorArgs(err)...)...)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}

	data := s.page(c, http.StatusText(status))
	data.Status = status
	if rerr := c.Render(status, "error", data); rerr != nil {
		s.logger.Error(ctx, "render error page", logging.ErrorArgs(rerr)...)
		_ = c.String(status, http.StatusText(status))
	}
}
