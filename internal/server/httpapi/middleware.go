package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dmitrijs2005/vidkeeper/internal/common"
	"github.com/dmitrijs2005/vidkeeper/internal/logging"
	"github.com/dmitrijs2005/vidkeeper/internal/server/auth"
	"github.com/dmitrijs2005/vidkeeper/internal/server/models"
)

const (
	sessionKey = "session"
	accountKey = "account"
	videoKey   = "video"
)

// loadSession reads the session cookie. A missing or unusable cookie is not
// an error: the request continues as anonymous.
func (s *Server) loadSession() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "cookie:" + common.SessionCookieName,
		ContextKey:  sessionKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return s.sessions.Parse(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if errors.Is(err, common.ErrTokenExpired) || errors.Is(err, common.ErrInvalidToken) {
				s.logger.Debug(c.Request().Context(), "discarding session cookie", "reason", err.Error())
				s.clearSessionCookie(c)
			}
			c.Set(sessionKey, s.sessions.Clear())
			return nil
		},
		ContinueOnIgnoredError: true,
	})
}

func session(c echo.Context) auth.Session {
	sess, _ := c.Get(sessionKey).(auth.Session)
	return sess
}

func currentAccount(c echo.Context) *models.Account {
	a, _ := c.Get(accountKey).(*models.Account)
	return a
}

func currentVideo(c echo.Context) *models.Video {
	v, _ := c.Get(videoKey).(*models.Video)
	return v
}

// requireAuth resolves the session to an account or sends the client to
// the login page.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		account, err := s.gate.RequireAuthenticated(c.Request().Context(), session(c))
		if err != nil {
			return err
		}
		c.Set(accountKey, account)
		return next(c)
	}
}

// requireOwner admits only the account named by the :id path segment.
func (s *Server) requireOwner(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		if err := s.gate.RequireOwner(currentAccount(c), id); err != nil {
			return err
		}
		return next(c)
	}
}

// loadVideo fetches :vid and checks that it belongs to the acting account.
func (s *Server) loadVideo(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "vid")
		if err != nil {
			return err
		}
		video, err := s.videos.FindByID(c.Request().Context(), id)
		if err != nil {
			return err
		}
		if err := s.gate.RequireOwner(currentAccount(c), video.OwnerID); err != nil {
			return err
		}
		c.Set(videoKey, video)
		return next(c)
	}
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.ErrNotFound
	}
	return id, nil
}

// observe records request count and latency per registered route.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if err != nil {
			status = statusFor(err)
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveRequest(c.Request().Method, route, status, time.Since(start))

		return err
	}
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			args := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
				"request_id", v.RequestID,
			}
			ctx := c.Request().Context()
			if v.Error != nil && v.Status >= http.StatusInternalServerError {
				s.logger.Error(ctx, "request failed", append(args, logging.ErrorArgs(v.Error)...)...)
				return nil
			}
			s.logger.Info(ctx, "request", args...)
			return nil
		},
	})
}

// dropSessionCookies removes Set-Cookie headers for the session cookie
// already queued on the response, so the last write is the only one sent.
func dropSessionCookies(c echo.Context) {
	h := c.Response().Header()
	var kept []string
	for _, v := range h.Values(echo.HeaderSetCookie) {
		if !strings.HasPrefix(v, common.SessionCookieName+"=") {
			kept = append(kept, v)
		}
	}
	h.Del(echo.HeaderSetCookie)
	for _, v := range kept {
		h.Add(echo.HeaderSetCookie, v)
	}
}

func (s *Server) setSessionCookie(c echo.Context, token string) {
	dropSessionCookies(c)
	c.SetCookie(&http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c echo.Context) {
	dropSessionCookies(c)
	c.SetCookie(&http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
