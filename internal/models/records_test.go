package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/wayfare-go/internal/utils"
)

func TestConnectionsFromRecords(t *testing.T) {
	conns, err := ConnectionsFromRecords([]Record{
		{"origin": "fln", "destination": "lim", "carrier_code": "LA", "carrier_name": "LATAM", "route_label": "LA2410"},
		{"origin": nil, "destination": "LIM", "carrier_code": "H2", "carrier_name": "Sky", "route_label": 17},
	})
	require.NoError(t, err)
	require.Len(t, conns, 2)

	assert.Equal(t, Connection{Origin: "FLN", Destination: "LIM", CarrierCode: "LA", CarrierName: "LATAM", RouteLabel: "LA2410"}, conns[0])
	// present but null fields survive for the index builder to drop
	assert.Equal(t, "", conns[1].Origin)
	assert.Equal(t, "17", conns[1].RouteLabel)
	assert.False(t, conns[1].IsIndexable())
}

func TestConnectionsFromRecords_MissingField(t *testing.T) {
	_, err := ConnectionsFromRecords([]Record{
		{"origin": "FLN", "destination": "LIM", "carrier_code": "LA", "carrier_name": "LATAM"},
	})
	require.Error(t, err)
	assert.True(t, utils.IsValidationError(err))
	assert.Contains(t, err.Error(), "route_label")
}

func TestQuotesFromRecords(t *testing.T) {
	quotes, err := QuotesFromRecords([]Record{
		{"symbol": "EURUSD=X", "timestamp": "2025-03-01T00:00:00Z", "close": 1.1},
		{"symbol": "EURUSD=X", "timestamp": "2025-03-02", "close": "1.12"},
		{"symbol": "USDJPY=X", "timestamp": float64(1740787200), "close": 150},
	})
	require.NoError(t, err)
	require.Len(t, quotes, 3)

	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), quotes[0].Timestamp)
	assert.Equal(t, 1.12, quotes[1].Close)
	assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), quotes[1].Timestamp)
	assert.Equal(t, int64(1740787200), quotes[2].Timestamp.Unix())
	assert.Equal(t, 150.0, quotes[2].Close)
}

func TestQuotesFromRecords_NullValuesAreDropped(t *testing.T) {
	quotes, err := QuotesFromRecords([]Record{
		{"symbol": "EURUSD=X", "timestamp": "2025-03-01", "close": 1.1},
		{"symbol": "EURUSD=X", "timestamp": nil, "close": 1.2},
		{"symbol": "EURUSD=X", "timestamp": "  ", "close": 1.3},
		{"symbol": "EURUSD=X", "timestamp": "2025-03-02", "close": nil},
	})
	require.NoError(t, err)
	require.Len(t, quotes, 4)
	assert.True(t, quotes[1].Timestamp.IsZero())
	assert.True(t, quotes[2].Timestamp.IsZero())
	assert.Zero(t, quotes[3].Close)

	table := NewQuoteTable(quotes)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, []float64{1.1}, table.Closes("EUR", "USD"))
}

func TestQuotesFromRecords_Errors(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
	}{
		{"missing close", Record{"symbol": "EURUSD=X", "timestamp": "2025-03-01"}},
		{"bad timestamp", Record{"symbol": "EURUSD=X", "timestamp": "yesterday", "close": 1.1}},
		{"bad close", Record{"symbol": "EURUSD=X", "timestamp": "2025-03-01", "close": "abc"}},
		{"unsupported close", Record{"symbol": "EURUSD=X", "timestamp": "2025-03-01", "close": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := QuotesFromRecords([]Record{tt.rec})
			require.Error(t, err)
			assert.True(t, utils.IsValidationError(err))
		})
	}
}
