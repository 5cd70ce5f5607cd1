// AngelaMos | 2026
// database_test.go

package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execStub struct {
	DBTX
	rows int64
	err  error
}

type rowsResult int64

func (r rowsResult) LastInsertId() (int64, error) { return 0, nil }
func (r rowsResult) RowsAffected() (int64, error) { return int64(r), nil }

func (s execStub) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return rowsResult(s.rows), nil
}

func TestExecOne(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, ExecOne(ctx, execStub{rows: 1}, "update", "UPDATE"))

	err := ExecOne(ctx, execStub{rows: 0}, "update", "UPDATE")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "update")

	boom := errors.New("conn reset")
	require.ErrorIs(t, ExecOne(ctx, execStub{err: boom}, "update", "UPDATE"), boom)
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "quotations_enquiry_seller_unique"}
	wrapped := fmt.Errorf("insert quotation: %w", pgErr)

	assert.True(t, IsUniqueViolation(wrapped, "quotations_enquiry_seller_unique"))
	assert.True(t, IsUniqueViolation(wrapped, ""))
	assert.False(t, IsUniqueViolation(wrapped, "users_email_key"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(errors.New("plain"), ""))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% copper\_wire \\ 4mm`, EscapeLike(`100% copper_wire \ 4mm`))
}
