package services

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/wayfare-go/internal/models"
)

// RouteResolver enumerates direct, one-stop and two-stop itineraries over a RouteIndex
type RouteResolver struct {
	airports models.AirportDirectory
	logger   *logrus.Logger
}

// NewRouteResolver creates a resolver that enriches itineraries from the given airport directory
func NewRouteResolver(airports models.AirportDirectory, logger *logrus.Logger) *RouteResolver {
	if airports == nil {
		airports = models.AirportDirectory{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &RouteResolver{
		airports: airports,
		logger:   logger,
	}
}

// Resolve returns every itinerary from start to end with at most two
// intermediate stops. Unknown airports yield an empty result. Itineraries that
// pass back through start or end are excluded, and start == end resolves to
// nothing. The result is unranked; within each bucket itineraries follow
// connection table order.
func (r *RouteResolver) Resolve(idx *RouteIndex, start, end string) models.PathResult {
	start = strings.ToUpper(strings.TrimSpace(start))
	end = strings.ToUpper(strings.TrimSpace(end))

	var result models.PathResult
	if idx == nil || start == "" || end == "" || start == end {
		return result
	}

	result.Direct = r.direct(idx, start, end)
	result.OneStop = r.oneStop(idx, start, end)
	result.TwoStop = r.twoStop(idx, start, end)

	r.logger.WithFields(logrus.Fields{
		"start":    start,
		"end":      end,
		"direct":   len(result.Direct),
		"one_stop": len(result.OneStop),
		"two_stop": len(result.TwoStop),
	}).Debug("Resolved routes")

	return result
}

func (r *RouteResolver) direct(idx *RouteIndex, start, end string) []models.Itinerary {
	legs := idx.Connections(start, end)
	if len(legs) == 0 {
		return nil
	}
	out := make([]models.Itinerary, 0, len(legs))
	for _, leg := range legs {
		out = append(out, r.itinerary(start, end, leg))
	}
	return out
}

// oneStop joins start->X legs with X->end legs where X is in
// outbound(start) ∩ inbound(end).
func (r *RouteResolver) oneStop(idx *RouteIndex, start, end string) []models.Itinerary {
	via := make(airportSet)
	for _, code := range idx.Outbound(start) {
		if code == start || code == end {
			continue
		}
		if idx.HasInbound(end, code) {
			via[code] = struct{}{}
		}
	}
	if len(via) == 0 {
		return nil
	}

	var out []models.Itinerary
	for _, first := range idx.Departures(start) {
		if !via.has(first.Destination) {
			continue
		}
		for _, second := range idx.Connections(first.Destination, end) {
			out = append(out, r.itinerary(start, end, first, second))
		}
	}
	return out
}

// twoStop finds middle legs A->B with A in outbound(start) and B in
// inbound(end), then attaches start->A and B->end legs. Only fully joined
// three-leg chains are returned.
func (r *RouteResolver) twoStop(idx *RouteIndex, start, end string) []models.Itinerary {
	var middles []models.Connection
	for _, a := range idx.Outbound(start) {
		if a == start || a == end {
			continue
		}
		for _, mid := range idx.Departures(a) {
			b := mid.Destination
			if b == start || b == end || b == a {
				continue
			}
			if idx.HasInbound(end, b) {
				middles = append(middles, mid)
			}
		}
	}
	if len(middles) == 0 {
		return nil
	}

	var out []models.Itinerary
	for _, mid := range middles {
		firsts := idx.Connections(start, mid.Origin)
		lasts := idx.Connections(mid.Destination, end)
		for _, first := range firsts {
			for _, last := range lasts {
				out = append(out, r.itinerary(start, end, first, mid, last))
			}
		}
	}
	return out
}

func (r *RouteResolver) itinerary(start, end string, legs ...models.Connection) models.Itinerary {
	return models.Itinerary{
		Legs:        legs,
		Origin:      r.airports.Lookup(start),
		Destination: r.airports.Lookup(end),
	}
}
