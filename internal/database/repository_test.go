package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/wayfare-go/internal/models"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestRouteRepository_LoadConnections(t *testing.T) {
	mock := newMockPool(t)
	repo := NewRouteRepository(mock)

	rows := mock.NewRows([]string{"origin", "destination", "carrier_code", "carrier_name", "route_label"}).
		AddRow("FLN", "LIM", "LA", "LATAM", "LA2410").
		AddRow("", "BOG", "AV", "Avianca", "AV88")
	mock.ExpectQuery("SELECT (.+) FROM connections").WillReturnRows(rows)

	conns, err := repo.LoadConnections(context.Background())
	require.NoError(t, err)
	require.Len(t, conns, 2)
	assert.Equal(t, models.Connection{Origin: "FLN", Destination: "LIM", CarrierCode: "LA", CarrierName: "LATAM", RouteLabel: "LA2410"}, conns[0])
	assert.False(t, conns[1].IsIndexable())
}

func TestRouteRepository_LoadConnections_QueryError(t *testing.T) {
	mock := newMockPool(t)
	repo := NewRouteRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM connections").WillReturnError(errors.New("relation does not exist"))

	_, err := repo.LoadConnections(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query connections")
}

func TestRouteRepository_LoadConnections_RowError(t *testing.T) {
	mock := newMockPool(t)
	repo := NewRouteRepository(mock)

	rows := mock.NewRows([]string{"origin", "destination", "carrier_code", "carrier_name", "route_label"}).
		AddRow("FLN", "LIM", "LA", "LATAM", "LA2410").
		RowError(0, errors.New("connection reset"))
	mock.ExpectQuery("SELECT (.+) FROM connections").WillReturnRows(rows)

	_, err := repo.LoadConnections(context.Background())
	assert.Error(t, err)
}

func TestRouteRepository_LoadAirports(t *testing.T) {
	mock := newMockPool(t)
	repo := NewRouteRepository(mock)

	rows := mock.NewRows([]string{"code", "name", "city", "country", "currency", "latitude", "longitude"}).
		AddRow("LIM", "Jorge Chavez", "Lima", "Peru", "PEN", -12.02, -77.11)
	mock.ExpectQuery("SELECT (.+) FROM airports").WillReturnRows(rows)

	airports, err := repo.LoadAirports(context.Background())
	require.NoError(t, err)
	require.Len(t, airports, 1)
	assert.Equal(t, "PEN", airports[0].Currency)
	assert.Equal(t, -12.02, airports[0].Latitude)
}

func TestQuoteRepository_LoadQuotes(t *testing.T) {
	mock := newMockPool(t)
	repo := NewQuoteRepository(mock)
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	observed := since.Add(24 * time.Hour)

	rows := mock.NewRows([]string{"symbol", "observed_at", "close"}).
		AddRow("EURUSD=X", observed, 1.1).
		AddRow("USDJPY=X", observed, 150.0)
	mock.ExpectQuery("SELECT (.+) FROM fx_quotes WHERE observed_at >= \\$1").
		WithArgs(since).
		WillReturnRows(rows)

	quotes, err := repo.LoadQuotes(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, models.Quote{Symbol: "EURUSD=X", Timestamp: observed, Close: 1.1}, quotes[0])
}

func TestQuoteRepository_LoadQuotes_Error(t *testing.T) {
	mock := newMockPool(t)
	repo := NewQuoteRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM fx_quotes").
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(errors.New("timeout"))

	_, err := repo.LoadQuotes(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query quotes")
}

func TestQuoteRepository_LatestFare(t *testing.T) {
	mock := newMockPool(t)
	repo := NewQuoteRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM fares").
		WithArgs("FLN", "LIM").
		WillReturnRows(mock.NewRows([]string{"price"}).AddRow(312.5))

	fare, ok, err := repo.LatestFare(context.Background(), "FLN", "LIM")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 312.5, fare)
}

func TestQuoteRepository_LatestFare_NoRows(t *testing.T) {
	mock := newMockPool(t)
	repo := NewQuoteRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM fares").
		WithArgs("FLN", "NRT").
		WillReturnRows(mock.NewRows([]string{"price"}))

	fare, ok, err := repo.LatestFare(context.Background(), "FLN", "NRT")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, fare)
}

func TestQuoteRepository_LatestFare_Error(t *testing.T) {
	mock := newMockPool(t)
	repo := NewQuoteRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM fares").
		WithArgs("FLN", "LIM").
		WillReturnError(errors.New("too many connections"))

	_, ok, err := repo.LatestFare(context.Background(), "FLN", "LIM")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "failed to query fare")
}
