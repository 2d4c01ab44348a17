package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samber/oops"

	"github.com/dmitrijs2005/vidkeeper/internal/common"
	"github.com/dmitrijs2005/vidkeeper/internal/dbx"
	"github.com/dmitrijs2005/vidkeeper/internal/server/models"
)

// Constraint names from the users migration.
const (
	UsernameConstraint = "users_username_key"
	EmailConstraint    = "users_email_key"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO users (username, email, pwdhash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.Username, account.Email, account.PasswordHash).Scan(&account.ID, &account.CreatedAt)

	if err != nil {
		if conflict := conflictError(err); conflict != nil {
			return nil, oops.Code("ACCOUNT_CONFLICT").
				With("username", account.Username).
				Wrap(conflict)
		}
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").
			With("username", account.Username).
			Wrapf(err, "db error")
	}

	return account, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query :=
		`SELECT id, username, email, pwdhash, created_at FROM users
		 WHERE id = $1
		 `

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Wrap(common.ErrorNotFound)
		}
		return nil, oops.Code("ACCOUNT_GET_FAILED").With("id", id).Wrapf(err, "db error")
	}

	return account, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	query :=
		`SELECT id, username, email, pwdhash, created_at FROM users
		 WHERE username = $1
		 `

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oops.Code("ACCOUNT_NOT_FOUND").With("username", username).Wrap(common.ErrorNotFound)
		}
		return nil, oops.Code("ACCOUNT_GET_FAILED").With("username", username).Wrapf(err, "db error")
	}

	return account, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT id, username, email, pwdhash, created_at FROM users
		 WHERE email = $1
		 `

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oops.Code("ACCOUNT_NOT_FOUND").With("email", email).Wrap(common.ErrorNotFound)
		}
		return nil, oops.Code("ACCOUNT_GET_FAILED").With("email", email).Wrapf(err, "db error")
	}

	return account, nil
}

// Update stores username and email. The password hash is not touched.
func (r *PostgresRepository) Update(ctx context.Context, account *models.Account) error {
	query :=
		`UPDATE users SET username = $2, email = $3
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, account.ID, account.Username, account.Email)
	if err != nil {
		if conflict := conflictError(err); conflict != nil {
			return oops.Code("ACCOUNT_CONFLICT").With("id", account.ID).Wrap(conflict)
		}
		return oops.Code("ACCOUNT_UPDATE_FAILED").With("id", account.ID).Wrapf(err, "db error")
	}

	return affectedOne(res, account.ID)
}

// Delete removes the account row; owned videos go with it through the
// foreign key cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").With("id", id).Wrapf(err, "db error")
	}

	return affectedOne(res, id)
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

// conflictError maps a unique violation to the matching sentinel, or nil.
func conflictError(err error) error {
	constraint, ok := dbx.UniqueViolation(err)
	if !ok {
		return nil
	}
	switch constraint {
	case EmailConstraint:
		return common.ErrorEmailTaken
	case UsernameConstraint:
		return common.ErrorUsernameTaken
	default:
		return common.ErrorConflict
	}
}

func affectedOne(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return oops.Code("ACCOUNT_WRITE_FAILED").With("id", id).Wrapf(err, "db error")
	}
	if n == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Wrap(common.ErrorNotFound)
	}
	return nil
}
