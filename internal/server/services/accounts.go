// Package services contains server-side business logic on top of the
// repositories. Every mutation runs in a single transaction.
package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/dmitrijs2005/vidkeeper/internal/common"
	"github.com/dmitrijs2005/vidkeeper/internal/cryptox"
	"github.com/dmitrijs2005/vidkeeper/internal/dbx"
	"github.com/dmitrijs2005/vidkeeper/internal/server/models"
	"github.com/dmitrijs2005/vidkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vidkeeper/internal/server/repositories/users"
)

// AccountService manages accounts and their credentials.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      cryptox.Hasher

	dummyOnce sync.Once
	dummyHash string
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, hasher cryptox.Hasher) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
	}
}

// Create registers a new account. A taken username is reported before a
// taken email.
func (s *AccountService) Create(ctx context.Context, username, email, password string) (*models.Account, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	var created *models.Account
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		if err := ensureAvailable(ctx, repo, 0, username, email); err != nil {
			return err
		}
		a, err := repo.Create(ctx, &models.Account{Username: username, Email: email, PasswordHash: hash})
		if err != nil {
			return err
		}
		created = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (s *AccountService) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.repomanager.Users(s.db).GetByUsername(ctx, username)
}

func (s *AccountService) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// Update changes username and email. Values already held by the account
// itself never conflict.
func (s *AccountService) Update(ctx context.Context, account *models.Account, username, email string) (*models.Account, error) {
	updated := *account
	updated.Username = username
	updated.Email = email

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		if err := ensureAvailable(ctx, repo, account.ID, username, email); err != nil {
			return err
		}
		return repo.Update(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// Delete removes the account together with all of its videos.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Videos(tx).DeleteByOwner(ctx, id); err != nil {
			return err
		}
		return s.repomanager.Users(tx).Delete(ctx, id)
	})
}

// Authenticate checks a username/password pair. Unknown users, wrong
// passwords and unreadable hashes all yield common.ErrorInvalidCredentials;
// only storage faults are returned as is.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	account, err := s.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// unknown users cost one verification as well
			_, _ = s.hasher.Verify(password, s.dummy())
			return nil, common.ErrorInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil || !ok {
		return nil, common.ErrorInvalidCredentials
	}

	return account, nil
}

func (s *AccountService) dummy() string {
	s.dummyOnce.Do(func() {
		secret, err := common.MakeRandHexString(16)
		if err != nil {
			return
		}
		s.dummyHash, _ = s.hasher.Hash(secret)
	})
	return s.dummyHash
}

// ensureAvailable reports whether username or email belong to an account
// other than selfID. The unique constraints still decide concurrent races.
func ensureAvailable(ctx context.Context, repo users.Repository, selfID int64, username, email string) error {
	if a, err := repo.GetByUsername(ctx, username); err == nil {
		if a.ID != selfID {
			return common.ErrorUsernameTaken
		}
	} else if !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	if a, err := repo.GetByEmail(ctx, email); err == nil {
		if a.ID != selfID {
			return common.ErrorEmailTaken
		}
	} else if !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	return nil
}
