package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vidkeeper/internal/dbx"
	"github.com/dmitrijs2005/vidkeeper/internal/server/models"
	"github.com/dmitrijs2005/vidkeeper/internal/server/repositories/repomanager"
)

// VideoService manages the videos owned by accounts. Ownership checks are
// the caller's business; see Gate.
type VideoService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewVideoService(db *sql.DB, m repomanager.RepositoryManager) *VideoService {
	return &VideoService{db: db, repomanager: m}
}

// Create stores a confirmed video with valid content. Invalid input is
// rejected before touching the database.
func (s *VideoService) Create(ctx context.Context, content string, confirmed bool, ownerID int64) (*models.Video, error) {
	v := &models.Video{Content: content, Confirmed: confirmed, OwnerID: ownerID}
	if err := v.Validate(); err != nil {
		return nil, err
	}

	var created *models.Video
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		created, err = s.repomanager.Videos(tx).Create(ctx, v)
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (s *VideoService) FindByID(ctx context.Context, id int64) (*models.Video, error) {
	return s.repomanager.Videos(s.db).GetByID(ctx, id)
}

func (s *VideoService) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Video, error) {
	return s.repomanager.Videos(s.db).ListByOwner(ctx, ownerID)
}

func (s *VideoService) CountByOwner(ctx context.Context, ownerID int64) (int64, error) {
	return s.repomanager.Videos(s.db).CountByOwner(ctx, ownerID)
}

func (s *VideoService) Update(ctx context.Context, video *models.Video, content string) (*models.Video, error) {
	if err := models.ValidateVideoContent(content); err != nil {
		return nil, err
	}

	updated := *video
	updated.Content = content

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Videos(tx).Update(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

func (s *VideoService) Delete(ctx context.Context, id int64) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Videos(tx).Delete(ctx, id)
	})
}
