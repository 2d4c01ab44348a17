package dbx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})

	name, ok := UniqueViolation(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "users_email_key", name)

	_, ok = UniqueViolation(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})
	assert.False(t, ok)

	_, ok = UniqueViolation(errors.New("plain"))
	assert.False(t, ok)
}
