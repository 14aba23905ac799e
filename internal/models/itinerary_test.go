package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func leg(origin, destination, carrier string) Connection {
	return Connection{Origin: origin, Destination: destination, CarrierCode: carrier, RouteLabel: carrier + "100"}
}

func TestItinerary_Shape(t *testing.T) {
	tests := []struct {
		name     string
		legs     []Connection
		stops    int
		tier     RouteTier
		via      []string
		path     string
		carriers []string
	}{
		{"empty", nil, 0, RouteTierNone, nil, "", []string{}},
		{"direct", []Connection{leg("FLN", "LIM", "LA")}, 0, RouteTierDirect, nil, "FLN-LIM", []string{"LA"}},
		{
			"one stop",
			[]Connection{leg("FLN", "BOG", "AV"), leg("BOG", "LIM", "AV")},
			1, RouteTierOneStop, []string{"BOG"}, "FLN-BOG-LIM", []string{"AV", "AV"},
		},
		{
			"two stop",
			[]Connection{leg("FLN", "GRU", "G3"), leg("GRU", "BOG", "AV"), leg("BOG", "MEX", "AM")},
			2, RouteTierTwoStop, []string{"GRU", "BOG"}, "FLN-GRU-BOG-MEX", []string{"G3", "AV", "AM"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := Itinerary{Legs: tt.legs}
			assert.Equal(t, tt.stops, it.Stops())
			assert.Equal(t, tt.tier, it.Tier())
			assert.Equal(t, tt.via, it.Via())
			assert.Equal(t, tt.path, it.Path())
			assert.Equal(t, tt.carriers, it.Carriers())
			assert.Len(t, it.RouteLabels(), len(tt.legs))
		})
	}
}

func TestRouteTier_Quality(t *testing.T) {
	assert.Equal(t, 1.0, RouteTierDirect.Quality())
	assert.Equal(t, 0.8, RouteTierOneStop.Quality())
	assert.Equal(t, 0.5, RouteTierTwoStop.Quality())
	assert.Equal(t, 0.0, RouteTierNone.Quality())
}

func TestPathResult_Best(t *testing.T) {
	direct := Itinerary{Legs: []Connection{leg("FLN", "LIM", "LA")}}
	oneStop := Itinerary{Legs: []Connection{leg("FLN", "BOG", "AV"), leg("BOG", "LIM", "AV")}}

	var empty PathResult
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, RouteTierNone, empty.BestTier())
	_, ok := empty.Best()
	assert.False(t, ok)

	r := PathResult{OneStop: []Itinerary{oneStop}}
	assert.Equal(t, RouteTierOneStop, r.BestTier())
	best, ok := r.Best()
	assert.True(t, ok)
	assert.Equal(t, "FLN-BOG-LIM", best.Path())

	r.Direct = []Itinerary{direct}
	assert.Equal(t, RouteTierDirect, r.BestTier())
	assert.Equal(t, 2, r.Total())
	best, _ = r.Best()
	assert.Equal(t, "FLN-LIM", best.Path())
}

func TestAirportDirectory(t *testing.T) {
	dir := NewAirportDirectory([]Airport{
		{Code: " lim ", City: "Lima", Currency: "PEN"},
		{Code: "", City: "Ghost"},
	})

	assert.Len(t, dir, 1)
	assert.Equal(t, "Lima", dir.Lookup("LIM").City)
	assert.Equal(t, "LIM", dir.Lookup("LIM").Code)
	assert.Equal(t, Airport{Code: "XXX"}, dir.Lookup("XXX"))
}

func TestConnection_IsIndexable(t *testing.T) {
	assert.True(t, leg("FLN", "LIM", "LA").IsIndexable())
	assert.False(t, Connection{Origin: "FLN"}.IsIndexable())
	assert.False(t, Connection{Origin: " ", Destination: "LIM"}.IsIndexable())
}
