package catalogue

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return New(sqlx.NewDb(db, "postgres")), mock, func() { _ = db.Close() }
}

func TestLookupHotels_PartialCoverageReturnsOnlyKnownIDs(t *testing.T) {
	s, mock, closeFn := newMockStore(t)
	defer closeFn()

	rows := sqlmock.NewRows([]string{"hotel_id", "language", "name", "address", "city", "country", "star_rating", "latitude", "longitude", "data"}).
		AddRow(int64(1), "en", "Hotel One", "1 Main St", "Paris", "FR", 4.0, 48.8, 2.3, []byte(`{}`))
	mock.ExpectQuery("SELECT hotel_id, language, name").
		WillReturnRows(rows)

	out, err := s.LookupHotels(context.Background(), "en", []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, "Hotel One", out[1].Name)
	_, ok := out[2]
	assert.False(t, ok)
}

func TestLookupHotels_EmptyIDsSkipsQuery(t *testing.T) {
	s, _, closeFn := newMockStore(t)
	defer closeFn()

	out, err := s.LookupHotels(context.Background(), "en", nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestLookupRegionByName_CaseInsensitiveSubstring(t *testing.T) {
	s, mock, closeFn := newMockStore(t)
	defer closeFn()

	rows := sqlmock.NewRows([]string{"region_id", "region_name", "country"}).
		AddRow(2621, "Paris", "FR")
	mock.ExpectQuery("SELECT DISTINCT region_id").
		WithArgs("paris").
		WillReturnRows(rows)

	out, err := s.LookupRegionByName(context.Background(), "paris")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 2621, out[0].RegionID)
}
