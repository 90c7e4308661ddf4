package pgerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	wrapped := func(code string) error {
		return fmt.Errorf("insert: %w", &pgconn.PgError{Code: code})
	}

	assert.True(t, IsUniqueViolation(wrapped("23505")))
	assert.True(t, IsForeignKeyViolation(wrapped("23503")))
	assert.True(t, IsCheckViolation(wrapped("23514")))
	assert.True(t, IsTransient(wrapped("40001")))
	assert.True(t, IsTransient(wrapped("40P01")))
	assert.True(t, IsTransient(wrapped("55P03")))
	assert.False(t, IsTransient(wrapped("23505")))
	assert.False(t, IsTransient(errors.New("boom")))
	assert.Equal(t, "", Code(nil))
}
