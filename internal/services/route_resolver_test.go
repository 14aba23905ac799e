package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/wayfare-go/internal/models"
)

func TestRouteResolver_DirectAndOneStop(t *testing.T) {
	idx := NewRouteIndex([]models.Connection{
		conn("FLN", "LIM", "LA"),
		conn("FLN", "BOG", "AV"),
		conn("BOG", "LIM", "AV"),
	})
	resolver := NewRouteResolver(nil, quietLogger())

	result := resolver.Resolve(idx, "FLN", "LIM")

	require.Len(t, result.Direct, 1)
	require.Len(t, result.OneStop, 1)
	assert.Empty(t, result.TwoStop)

	assert.Equal(t, "FLN-LIM", result.Direct[0].Path())
	assert.Equal(t, []string{"BOG"}, result.OneStop[0].Via())
	assert.Equal(t, []string{"AV", "AV"}, result.OneStop[0].Carriers())
	assert.Equal(t, models.RouteTierDirect, result.BestTier())
}

func TestRouteResolver_TwoStop(t *testing.T) {
	idx := NewRouteIndex([]models.Connection{
		conn("FLN", "GRU", "G3"),
		conn("GRU", "BOG", "AV"),
		conn("BOG", "MEX", "AM"),
	})
	resolver := NewRouteResolver(nil, quietLogger())

	result := resolver.Resolve(idx, "FLN", "MEX")

	assert.Empty(t, result.Direct)
	assert.Empty(t, result.OneStop)
	require.Len(t, result.TwoStop, 1)
	assert.Equal(t, "FLN-GRU-BOG-MEX", result.TwoStop[0].Path())
	assert.Equal(t, 2, result.TwoStop[0].Stops())
	assert.Equal(t, models.RouteTierTwoStop, result.BestTier())
}

func TestRouteResolver_EveryItineraryChains(t *testing.T) {
	idx := NewRouteIndex([]models.Connection{
		conn("FLN", "LIM", "LA"),
		conn("FLN", "GRU", "G3"),
		conn("FLN", "BOG", "AV"),
		conn("GRU", "BOG", "AV"),
		conn("GRU", "LIM", "LA"),
		conn("BOG", "LIM", "AV"),
		conn("BOG", "MEX", "AM"),
		conn("MEX", "LIM", "AM"),
		conn("LIM", "FLN", "LA"),
	})
	resolver := NewRouteResolver(nil, quietLogger())

	result := resolver.Resolve(idx, "FLN", "LIM")
	require.False(t, result.IsEmpty())

	buckets := map[int][]models.Itinerary{1: result.Direct, 2: result.OneStop, 3: result.TwoStop}
	for legs, bucket := range buckets {
		for _, it := range bucket {
			require.Len(t, it.Legs, legs, it.Path())
			assert.Equal(t, "FLN", it.Legs[0].Origin)
			assert.Equal(t, "LIM", it.Legs[len(it.Legs)-1].Destination)
			for i := 1; i < len(it.Legs); i++ {
				assert.Equal(t, it.Legs[i-1].Destination, it.Legs[i].Origin, it.Path())
			}
			for _, via := range it.Via() {
				assert.NotEqual(t, "FLN", via)
				assert.NotEqual(t, "LIM", via)
			}
		}
	}

	assert.Len(t, result.Direct, 1)
	// FLN-BOG-LIM and FLN-GRU-LIM
	assert.Len(t, result.OneStop, 2)
	// FLN-GRU-BOG-LIM and FLN-BOG-MEX-LIM
	assert.Len(t, result.TwoStop, 2)
}

func TestRouteResolver_ExcludesPathsThroughEndpoints(t *testing.T) {
	idx := NewRouteIndex([]models.Connection{
		conn("FLN", "LIM", "LA"),
		conn("LIM", "FLN", "LA"),
		conn("LIM", "LIM", "XX"),
	})
	resolver := NewRouteResolver(nil, quietLogger())

	result := resolver.Resolve(idx, "FLN", "LIM")

	require.Len(t, result.Direct, 1)
	// FLN-LIM-LIM and FLN-LIM-FLN-LIM are not itineraries
	assert.Empty(t, result.OneStop)
	assert.Empty(t, result.TwoStop)
	assert.Equal(t, models.RouteTierDirect, result.BestTier())
}

func TestRouteResolver_EmptyResults(t *testing.T) {
	idx := NewRouteIndex([]models.Connection{conn("FLN", "LIM", "LA")})
	resolver := NewRouteResolver(nil, quietLogger())

	tests := []struct {
		name  string
		idx   *RouteIndex
		start string
		end   string
	}{
		{"unknown origin", idx, "XXX", "LIM"},
		{"unknown destination", idx, "FLN", "XXX"},
		{"blank code", idx, "", "LIM"},
		{"same airport", idx, "FLN", "FLN"},
		{"nil index", nil, "FLN", "LIM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := resolver.Resolve(tt.idx, tt.start, tt.end)
			assert.True(t, result.IsEmpty())
			assert.Equal(t, models.RouteTierNone, result.BestTier())
		})
	}
}

func TestRouteResolver_NormalizesCodesAndEnrichesAirports(t *testing.T) {
	idx := NewRouteIndex([]models.Connection{conn("FLN", "LIM", "LA")})
	dir := models.NewAirportDirectory([]models.Airport{
		{Code: "FLN", City: "Florianopolis", Country: "Brazil", Currency: "BRL"},
		{Code: "LIM", City: "Lima", Country: "Peru", Currency: "PEN"},
	})
	resolver := NewRouteResolver(dir, quietLogger())

	result := resolver.Resolve(idx, " fln", "lim ")
	require.Len(t, result.Direct, 1)
	assert.Equal(t, "Florianopolis", result.Direct[0].Origin.City)
	assert.Equal(t, "PEN", result.Direct[0].Destination.Currency)
}

func TestRouteResolver_ConcurrentQueries(t *testing.T) {
	var conns []models.Connection
	hubs := []string{"GRU", "BOG", "PTY", "SCL", "MEX"}
	for _, hub := range hubs {
		conns = append(conns, conn("FLN", hub, "XX"), conn(hub, "LIM", "XX"))
	}
	idx := NewRouteIndex(conns)
	resolver := NewRouteResolver(nil, quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := resolver.Resolve(idx, "FLN", "LIM")
			assert.Len(t, result.OneStop, len(hubs), fmt.Sprint(result.Total()))
		}()
	}
	wg.Wait()
}
