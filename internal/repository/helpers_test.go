package repository

import (
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"commerce-service/internal/validation"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func userRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "address", "email"})
}

func idRows(ids ...int) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{"id"})
	for _, id := range ids {
		rows.AddRow(id)
	}
	return rows
}

func orderRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "order_date", "user_id", "id", "product_name", "price"})
}

func requireFieldError(t *testing.T, err error, field, message string) {
	t.Helper()

	var verr *validation.Error
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	require.Equal(t, message, verr.Fields[field])
}
