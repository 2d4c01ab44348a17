package videos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samber/oops"

	"github.com/dmitrijs2005/vidkeeper/internal/common"
	"github.com/dmitrijs2005/vidkeeper/internal/dbx"
	"github.com/dmitrijs2005/vidkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, video *models.Video) (*models.Video, error) {
	query :=
		`INSERT INTO videos (video, confirmed, user_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		video.Content, video.Confirmed, video.OwnerID).Scan(&video.ID, &video.CreatedAt)
	if err != nil {
		return nil, oops.Code("VIDEO_CREATE_FAILED").
			With("owner_id", video.OwnerID).
			Wrapf(err, "db error")
	}

	return video, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Video, error) {
	query :=
		`SELECT id, video, confirmed, user_id, created_at FROM videos
		 WHERE id = $1
		 `

	v := &models.Video{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&v.ID, &v.Content, &v.Confirmed, &v.OwnerID, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oops.Code("VIDEO_NOT_FOUND").With("id", id).Wrap(common.ErrorNotFound)
		}
		return nil, oops.Code("VIDEO_GET_FAILED").With("id", id).Wrapf(err, "db error")
	}

	return v, nil
}

// ListByOwner returns the owner's videos in creation order.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Video, error) {
	query :=
		`SELECT id, video, confirmed, user_id, created_at FROM videos
		 WHERE user_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, oops.Code("VIDEO_LIST_FAILED").With("owner_id", ownerID).Wrapf(err, "db error")
	}
	defer rows.Close()

	result := make([]*models.Video, 0)
	for rows.Next() {
		v := &models.Video{}
		if err := rows.Scan(&v.ID, &v.Content, &v.Confirmed, &v.OwnerID, &v.CreatedAt); err != nil {
			return nil, oops.Code("VIDEO_LIST_FAILED").With("owner_id", ownerID).Wrapf(err, "scan error")
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("VIDEO_LIST_FAILED").With("owner_id", ownerID).Wrapf(err, "db error")
	}

	return result, nil
}

func (r *PostgresRepository) CountByOwner(ctx context.Context, ownerID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM videos WHERE user_id = $1`

	var n int64
	if err := r.db.QueryRowContext(ctx, query, ownerID).Scan(&n); err != nil {
		return 0, oops.Code("VIDEO_COUNT_FAILED").With("owner_id", ownerID).Wrapf(err, "db error")
	}

	return n, nil
}

// Update stores the new content. Ownership and confirmation never change.
func (r *PostgresRepository) Update(ctx context.Context, video *models.Video) error {
	query :=
		`UPDATE videos SET video = $2
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, video.ID, video.Content)
	if err != nil {
		return oops.Code("VIDEO_UPDATE_FAILED").With("id", video.ID).Wrapf(err, "db error")
	}

	return affectedOne(res, video.ID)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM videos WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return oops.Code("VIDEO_DELETE_FAILED").With("id", id).Wrapf(err, "db error")
	}

	return affectedOne(res, id)
}

func (r *PostgresRepository) DeleteByOwner(ctx context.Context, ownerID int64) (int64, error) {
	query := `DELETE FROM videos WHERE user_id = $1`

	res, err := r.db.ExecContext(ctx, query, ownerID)
	if err != nil {
		return 0, oops.Code("VIDEO_DELETE_FAILED").With("owner_id", ownerID).Wrapf(err, "db error")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, oops.Code("VIDEO_DELETE_FAILED").With("owner_id", ownerID).Wrapf(err, "db error")
	}

	return n, nil
}

func affectedOne(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return oops.Code("VIDEO_WRITE_FAILED").With("id", id).Wrapf(err, "db error")
	}
	if n == 0 {
		return oops.Code("VIDEO_NOT_FOUND").With("id", id).Wrap(common.ErrorNotFound)
	}
	return nil
}
