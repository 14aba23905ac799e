package services

import (
	"sort"
	"strings"

	"github.com/irfndi/wayfare-go/internal/models"
)

type airportPair struct {
	origin      string
	destination string
}

type airportSet map[string]struct{}

func (s airportSet) has(code string) bool {
	_, ok := s[code]
	return ok
}

// RouteIndex is the lookup structure derived from a connection table.
// It is built once per load and never mutated afterwards, so any number of
// goroutines may query it concurrently.
type RouteIndex struct {
	pairs    map[airportPair][]models.Connection
	outbound map[string]airportSet
	inbound  map[string]airportSet
	// origin -> connections departing it, in table order
	departures map[string][]models.Connection
	size       int
}

// NewRouteIndex builds the exact-pair buckets and both adjacency sets.
// Rows missing an origin or destination are dropped; duplicates are kept.
func NewRouteIndex(connections []models.Connection) *RouteIndex {
	idx := &RouteIndex{
		pairs:      make(map[airportPair][]models.Connection),
		outbound:   make(map[string]airportSet),
		inbound:    make(map[string]airportSet),
		departures: make(map[string][]models.Connection),
	}

	for _, c := range connections {
		if !c.IsIndexable() {
			continue
		}
		c.Origin = strings.ToUpper(strings.TrimSpace(c.Origin))
		c.Destination = strings.ToUpper(strings.TrimSpace(c.Destination))

		key := airportPair{origin: c.Origin, destination: c.Destination}
		idx.pairs[key] = append(idx.pairs[key], c)
		idx.departures[c.Origin] = append(idx.departures[c.Origin], c)

		if idx.outbound[c.Origin] == nil {
			idx.outbound[c.Origin] = make(airportSet)
		}
		idx.outbound[c.Origin][c.Destination] = struct{}{}

		if idx.inbound[c.Destination] == nil {
			idx.inbound[c.Destination] = make(airportSet)
		}
		idx.inbound[c.Destination][c.Origin] = struct{}{}

		idx.size++
	}

	return idx
}

// Connections returns every connection for the exact origin/destination pair
func (idx *RouteIndex) Connections(origin, destination string) []models.Connection {
	return idx.pairs[airportPair{origin: origin, destination: destination}]
}

// Departures returns every connection leaving origin
func (idx *RouteIndex) Departures(origin string) []models.Connection {
	return idx.departures[origin]
}

// Outbound returns the sorted airports reachable from origin in one hop
func (idx *RouteIndex) Outbound(origin string) []string {
	return sortedCodes(idx.outbound[origin])
}

// Inbound returns the sorted airports that reach destination in one hop
func (idx *RouteIndex) Inbound(destination string) []string {
	return sortedCodes(idx.inbound[destination])
}

// HasOutbound reports whether origin -> next is a known hop
func (idx *RouteIndex) HasOutbound(origin, next string) bool {
	return idx.outbound[origin].has(next)
}

// HasInbound reports whether prev -> destination is a known hop
func (idx *RouteIndex) HasInbound(destination, prev string) bool {
	return idx.inbound[destination].has(prev)
}

// Airports returns every airport that appears as an origin or destination
func (idx *RouteIndex) Airports() []string {
	all := make(airportSet, len(idx.outbound)+len(idx.inbound))
	for code := range idx.outbound {
		all[code] = struct{}{}
	}
	for code := range idx.inbound {
		all[code] = struct{}{}
	}
	return sortedCodes(all)
}

// Size returns the number of indexed connections
func (idx *RouteIndex) Size() int {
	return idx.size
}

// PairCount returns the number of distinct origin/destination buckets
func (idx *RouteIndex) PairCount() int {
	return len(idx.pairs)
}

func sortedCodes(set airportSet) []string {
	if len(set) == 0 {
		return nil
	}
	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
