package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/vidkeeper/internal/common"
	"github.com/dmitrijs2005/vidkeeper/internal/dbx"
	"github.com/dmitrijs2005/vidkeeper/internal/server/models"
	"github.com/dmitrijs2005/vidkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/vidkeeper/internal/server/repositories/videos"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newTxDB returns a real database handle so dbx.WithTx can begin and commit;
// the in-memory repositories below ignore it.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", common.ErrorValidation
	}
	return "hashed:" + password, nil
}

func (fakeHasher) Verify(password, hash string) (bool, error) {
	if !strings.HasPrefix(hash, "hashed:") {
		return false, common.ErrorValidation
	}
	return hash == "hashed:"+password, nil
}

// memStore emulates the two tables including their unique constraints and
// the cascading foreign key.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]models.Account
	videos   map[int64]models.Video

	readErr error
}

func newMemStore() *memStore {
	return &memStore{accounts: map[int64]models.Account{}, videos: map[int64]models.Video{}}
}

type memRepoManager struct{ s *memStore }

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRepoManager) Users(dbx.DBTX) users.Repository             { return &memUsers{m.s} }
func (m *memRepoManager) Videos(dbx.DBTX) videos.Repository           { return &memVideos{m.s} }

type memUsers struct{ s *memStore }

func (r *memUsers) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.accounts {
		if other.Username == a.Username {
			return nil, common.ErrorUsernameTaken
		}
		if other.Email == a.Email {
			return nil, common.ErrorEmailTaken
		}
	}
	r.s.nextID++
	a.ID = r.s.nextID
	a.CreatedAt = time.Now()
	r.s.accounts[a.ID] = *a
	return a, nil
}

func (r *memUsers) find(match func(models.Account) bool) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.readErr != nil {
		return nil, r.s.readErr
	}
	for _, a := range r.s.accounts {
		if match(a) {
			a := a
			return &a, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) GetByID(_ context.Context, id int64) (*models.Account, error) {
	return r.find(func(a models.Account) bool { return a.ID == id })
}

func (r *memUsers) GetByUsername(_ context.Context, username string) (*models.Account, error) {
	return r.find(func(a models.Account) bool { return a.Username == username })
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	return r.find(func(a models.Account) bool { return a.Email == email })
}

func (r *memUsers) Update(_ context.Context, a *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.accounts[a.ID]
	if !ok {
		return common.ErrorNotFound
	}
	cur.Username, cur.Email = a.Username, a.Email
	r.s.accounts[a.ID] = cur
	return nil
}

func (r *memUsers) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accounts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.accounts, id)
	for vid, v := range r.s.videos {
		if v.OwnerID == id {
			delete(r.s.videos, vid)
		}
	}
	return nil
}

type memVideos struct{ s *memStore }

func (r *memVideos) Create(_ context.Context, v *models.Video) (*models.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accounts[v.OwnerID]; !ok {
		return nil, common.ErrorNotFound
	}
	r.s.nextID++
	v.ID = r.s.nextID
	v.CreatedAt = time.Now()
	r.s.videos[v.ID] = *v
	return v, nil
}

func (r *memVideos) GetByID(_ context.Context, id int64) (*models.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.videos[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &v, nil
}

func (r *memVideos) ListByOwner(_ context.Context, ownerID int64) ([]*models.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.readErr != nil {
		return nil, r.s.readErr
	}
	out := make([]*models.Video, 0)
	for _, v := range r.s.videos {
		if v.OwnerID == ownerID {
			v := v
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memVideos) CountByOwner(ctx context.Context, ownerID int64) (int64, error) {
	list, err := r.ListByOwner(ctx, ownerID)
	return int64(len(list)), err
}

func (r *memVideos) Update(_ context.Context, v *models.Video) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.videos[v.ID]
	if !ok {
		return common.ErrorNotFound
	}
	cur.Content = v.Content
	r.s.videos[v.ID] = cur
	return nil
}

func (r *memVideos) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.videos[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.videos, id)
	return nil
}

func (r *memVideos) DeleteByOwner(_ context.Context, ownerID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, v := range r.s.videos {
		if v.OwnerID == ownerID {
			delete(r.s.videos, id)
			n++
		}
	}
	return n, nil
}

type fixture struct {
	store    *memStore
	accounts *AccountService
	videos   *VideoService
	gate     *Gate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTxDB(t)
	store := newMemStore()
	rm := &memRepoManager{s: store}
	accounts := NewAccountService(db, rm, fakeHasher{})
	return &fixture{
		store:    store,
		accounts: accounts,
		videos:   NewVideoService(db, rm),
		gate:     NewGate(accounts),
	}
}

func accountFixture(id int64, username, email string) models.Account {
	return models.Account{ID: id, Username: username, Email: email, PasswordHash: "hashed:pw", CreatedAt: time.Now()}
}
