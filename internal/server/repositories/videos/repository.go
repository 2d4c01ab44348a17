// Package videos persists videos in the videos table.
package videos

import (
	"context"

	"github.com/dmitrijs2005/vidkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, video *models.Video) (*models.Video, error)
	GetByID(ctx context.Context, id int64) (*models.Video, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.Video, error)
	CountByOwner(ctx context.Context, ownerID int64) (int64, error)
	Update(ctx context.Context, video *models.Video) error
	Delete(ctx context.Context, id int64) error
	DeleteByOwner(ctx context.Context, ownerID int64) (int64, error)
}
