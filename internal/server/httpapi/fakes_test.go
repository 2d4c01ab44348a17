package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/vidkeeper/internal/common"
	"github.com/dmitrijs2005/vidkeeper/internal/logging"
	"github.com/dmitrijs2005/vidkeeper/internal/server/auth"
	"github.com/dmitrijs2005/vidkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/vidkeeper/internal/server/models"
	"github.com/dmitrijs2005/vidkeeper/internal/server/services"
)

type store struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*models.Account
	videos   map[int64]*models.Video
}

type fakeAccounts struct{ s *store }

func (f *fakeAccounts) Create(_ context.Context, username, email, password string) (*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, a := range f.s.accounts {
		if a.Username == username {
			return nil, common.ErrorUsernameTaken
		}
		if a.Email == email {
			return nil, common.ErrorEmailTaken
		}
	}
	f.s.nextID++
	a := &models.Account{ID: f.s.nextID, Username: username, Email: email, PasswordHash: "pw:" + password, CreatedAt: time.Now()}
	f.s.accounts[a.ID] = a
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) FindByID(_ context.Context, id int64) (*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) FindByUsername(_ context.Context, username string) (*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, a := range f.s.accounts {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccounts) Update(_ context.Context, account *models.Account, username, email string) (*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, a := range f.s.accounts {
		if a.ID != account.ID && a.Username == username {
			return nil, common.ErrorUsernameTaken
		}
		if a.ID != account.ID && a.Email == email {
			return nil, common.ErrorEmailTaken
		}
	}
	a, ok := f.s.accounts[account.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	a.Username, a.Email = username, email
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) Delete(_ context.Context, id int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.accounts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.s.accounts, id)
	for vid, v := range f.s.videos {
		if v.OwnerID == id {
			delete(f.s.videos, vid)
		}
	}
	return nil
}

func (f *fakeAccounts) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	a, err := f.FindByUsername(ctx, username)
	if err != nil || a.PasswordHash != "pw:"+password {
		return nil, common.ErrorInvalidCredentials
	}
	return a, nil
}

type fakeVideos struct{ s *store }

func (f *fakeVideos) Create(_ context.Context, content string, confirmed bool, ownerID int64) (*models.Video, error) {
	v := &models.Video{Content: content, Confirmed: confirmed, OwnerID: ownerID}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.nextID++
	v.ID = f.s.nextID
	v.CreatedAt = time.Now()
	f.s.videos[v.ID] = v
	cp := *v
	return &cp, nil
}

func (f *fakeVideos) FindByID(_ context.Context, id int64) (*models.Video, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	v, ok := f.s.videos[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVideos) ListByOwner(_ context.Context, ownerID int64) ([]*models.Video, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]*models.Video, 0)
	for _, v := range f.s.videos {
		if v.OwnerID == ownerID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeVideos) CountByOwner(ctx context.Context, ownerID int64) (int64, error) {
	list, err := f.ListByOwner(ctx, ownerID)
	return int64(len(list)), err
}

func (f *fakeVideos) Update(_ context.Context, video *models.Video, content string) (*models.Video, error) {
	if err := models.ValidateVideoContent(content); err != nil {
		return nil, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	v, ok := f.s.videos[video.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	v.Content = content
	cp := *v
	return &cp, nil
}

func (f *fakeVideos) Delete(_ context.Context, id int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.videos[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.s.videos, id)
	return nil
}

type fakeExporter struct {
	res *services.ExportResult
	err error
}

func (f *fakeExporter) Export(_ context.Context, account *models.Account) (*services.ExportResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

type fakePinger struct{ err error }

func (f *fakePinger) PingContext(context.Context) error { return f.err }

type testEnv struct {
	srv      *Server
	store    *store
	accounts *fakeAccounts
	videos   *fakeVideos
	sessions *auth.SessionManager
	exports  *fakeExporter
	pinger   *fakePinger
	metrics  *metrics.Metrics
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	st := &store{accounts: map[int64]*models.Account{}, videos: map[int64]*models.Video{}}
	env := &testEnv{
		store:    st,
		accounts: &fakeAccounts{s: st},
		videos:   &fakeVideos{s: st},
		sessions: auth.NewSessionManager([]byte("test-secret"), time.Hour),
		exports:  &fakeExporter{},
		pinger:   &fakePinger{},
		metrics:  metrics.New(),
	}

	srv, err := NewServer(
		Options{Address: "127.0.0.1:0", RequestTimeout: 5 * time.Second},
		logging.Nop(),
		env.sessions,
		Services{
			Accounts: env.accounts,
			Videos:   env.videos,
			Gate:     services.NewGate(env.accounts),
			Exports:  env.exports,
		},
		env.pinger,
		env.metrics,
	)
	require.NoError(t, err)
	env.srv = srv

	return env
}

func (e *testEnv) do(t *testing.T, method, target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

// signup registers through the HTTP surface and returns the session cookie.
func (e *testEnv) signup(t *testing.T, username string) *http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/signup", url.Values{
		"username": {username},
		"email":    {username + "@example.com"},
		"password": {"secret-pw"},
		"confirm":  {"secret-pw"},
	}, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	c := sessionCookie(rec)
	require.NotNil(t, c)
	return c
}

func (e *testEnv) accountID(t *testing.T, username string) int64 {
	t.Helper()
	a, err := e.accounts.FindByUsername(context.Background(), username)
	require.NoError(t, err)
	return a.ID
}

func (e *testEnv) addVideo(t *testing.T, ownerID int64, content string) int64 {
	t.Helper()
	v, err := e.videos.Create(context.Background(), content, true, ownerID)
	require.NoError(t, err)
	return v.ID
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == common.SessionCookieName {
			return c
		}
	}
	return nil
}

var errBoom = errors.New("boom")
