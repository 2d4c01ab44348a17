package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/vidkeeper/internal/common"
	"github.com/dmitrijs2005/vidkeeper/internal/server/auth"
	"github.com/dmitrijs2005/vidkeeper/internal/server/models"
)

type accountFinder interface {
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
}

// Gate resolves sessions to accounts and checks ownership.
type Gate struct {
	accounts accountFinder
}

func NewGate(accounts accountFinder) *Gate {
	return &Gate{accounts: accounts}
}

// RequireAuthenticated returns the account behind the session.
// Anonymous sessions, sessions of deleted accounts and sessions whose
// username now belongs to a different account yield
// common.ErrorUnauthenticated; storage faults are passed through.
func (g *Gate) RequireAuthenticated(ctx context.Context, s auth.Session) (*models.Account, error) {
	if !s.Authenticated() {
		return nil, common.ErrorUnauthenticated
	}

	account, err := g.accounts.FindByUsername(ctx, s.Principal)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthenticated
		}
		return nil, err
	}
	if account.ID != s.AccountID {
		return nil, common.ErrorUnauthenticated
	}

	return account, nil
}

func (g *Gate) RequireOwner(acting *models.Account, ownerID int64) error {
	if acting == nil || acting.ID != ownerID {
		return common.ErrorForbidden
	}
	return nil
}
