// Package users persists accounts in the users table.
package users

import (
	"context"

	"github.com/dmitrijs2005/vidkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, id int64) error
}
