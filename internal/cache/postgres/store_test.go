package postgres

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return New(sqlxDB), mock, func() { _ = db.Close() }
}

func TestStore_GetDestination_Miss(t *testing.T) {
	s, mock, closeFn := newMockStore(t)
	defer closeFn()

	mock.ExpectQuery("SELECT normalized_name").
		WithArgs("paris").
		WillReturnRows(sqlmock.NewRows(nil))

	_, ok, err := s.GetDestination(context.Background(), "paris")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_GetDestination_Hit(t *testing.T) {
	s, mock, closeFn := newMockStore(t)
	defer closeFn()

	rows := sqlmock.NewRows([]string{"normalized_name", "region_id", "region_name", "last_verified_at", "hit_count"}).
		AddRow("paris", 2621, "Paris", time.Now(), int64(4))
	mock.ExpectQuery("SELECT normalized_name").
		WithArgs("paris").
		WillReturnRows(rows)

	e, ok, err := s.GetDestination(context.Background(), "paris")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2621, e.RegionID)
	assert.Equal(t, int64(4), e.HitCount)
}

func TestStore_GetSearch_ExpiredRowTreatedAsMiss(t *testing.T) {
	s, mock, closeFn := newMockStore(t)
	defer closeFn()

	rows := sqlmock.NewRows([]string{"signature", "params", "region_id", "hotel_ids", "rates_index", "cached_at", "expires_at", "hit_count"}).
		AddRow("sig-1", []byte(`{}`), 1, "{1,2}", []byte(`{}`), time.Now().Add(-time.Hour), time.Now().Add(-time.Minute), int64(0))
	mock.ExpectQuery("SELECT signature").
		WithArgs("sig-1").
		WillReturnRows(rows)
	mock.ExpectExec("DELETE FROM search_cache").
		WithArgs("sig-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, ok, err := s.GetSearch(context.Background(), "sig-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SweepExpired_SumsAcrossTables(t *testing.T) {
	s, mock, closeFn := newMockStore(t)
	defer closeFn()

	mock.ExpectExec("DELETE FROM search_cache").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM hotel_static_cache").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM filter_values_cache").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM autocomplete_cache").WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := s.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
}
