// Package httpapi serves the HTML pages of VidKeeper over echo.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/vidkeeper/internal/logging"
	"github.com/dmitrijs2005/vidkeeper/internal/server/auth"
	"github.com/dmitrijs2005/vidkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/vidkeeper/internal/server/models"
	"github.com/dmitrijs2005/vidkeeper/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

type AccountService interface {
	Create(ctx context.Context, username, email, password string) (*models.Account, error)
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	Update(ctx context.Context, account *models.Account, username, email string) (*models.Account, error)
	Delete(ctx context.Context, id int64) error
	Authenticate(ctx context.Context, username, password string) (*models.Account, error)
}

type VideoService interface {
	Create(ctx context.Context, content string, confirmed bool, ownerID int64) (*models.Video, error)
	FindByID(ctx context.Context, id int64) (*models.Video, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.Video, error)
	CountByOwner(ctx context.Context, ownerID int64) (int64, error)
	Update(ctx context.Context, video *models.Video, content string) (*models.Video, error)
	Delete(ctx context.Context, id int64) error
}

type Gate interface {
	RequireAuthenticated(ctx context.Context, s auth.Session) (*models.Account, error)
	RequireOwner(acting *models.Account, ownerID int64) error
}

type Exporter interface {
	Export(ctx context.Context, account *models.Account) (*services.ExportResult, error)
}

// Pinger reports database health; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Services groups the domain services the handlers depend on.
type Services struct {
	Accounts AccountService
	Videos   VideoService
	Gate     Gate
	Exports  Exporter
}

type Options struct {
	Address        string
	RequestTimeout time.Duration
	CookieSecure   bool
}

type Server struct {
	address        string
	requestTimeout time.Duration
	cookieSecure   bool

	echo     *echo.Echo
	logger   logging.Logger
	sessions *auth.SessionManager
	accounts AccountService
	videos   VideoService
	gate     Gate
	exports  Exporter
	health   Pinger
	metrics  *metrics.Metrics
}

func NewServer(opts Options, l logging.Logger, sessions *auth.SessionManager, svc Services, health Pinger, m *metrics.Metrics) (*Server, error) {
	r, err := newRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		address:        opts.Address,
		requestTimeout: opts.RequestTimeout,
		cookieSecure:   opts.CookieSecure,
		echo:           echo.New(),
		logger:         l.With("module", "http_server"),
		sessions:       sessions,
		accounts:       svc.Accounts,
		videos:         svc.Videos,
		gate:           svc.Gate,
		exports:        svc.Exports,
		health:         health,
		metrics:        m,
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Renderer = r
	s.echo.HTTPErrorHandler = s.handleError

	s.routes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run serves until ctx is cancelled, then drains in-flight requests for
// at most shutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(s.address)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
