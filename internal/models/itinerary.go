package models

import "strings"

// RouteTier classifies an itinerary by the number of intermediate stops
type RouteTier string

const (
	RouteTierDirect  RouteTier = "direct"
	RouteTierOneStop RouteTier = "one_stop"
	RouteTierTwoStop RouteTier = "two_stop"
	RouteTierNone    RouteTier = "none"
)

// Quality returns the scoring weight of the tier
func (t RouteTier) Quality() float64 {
	switch t {
	case RouteTierDirect:
		return 1.0
	case RouteTierOneStop:
		return 0.8
	case RouteTierTwoStop:
		return 0.5
	default:
		return 0
	}
}

// Itinerary is one chained sequence of legs from an origin to a destination.
// Legs keep their carrier and route label so callers can report the path used.
type Itinerary struct {
	Legs        []Connection `json:"legs"`
	Origin      Airport      `json:"origin"`
	Destination Airport      `json:"destination"`
}

// Stops returns the number of intermediate airports
func (i Itinerary) Stops() int {
	if len(i.Legs) == 0 {
		return 0
	}
	return len(i.Legs) - 1
}

// Tier maps the stop count to a route tier
func (i Itinerary) Tier() RouteTier {
	switch len(i.Legs) {
	case 1:
		return RouteTierDirect
	case 2:
		return RouteTierOneStop
	case 3:
		return RouteTierTwoStop
	default:
		return RouteTierNone
	}
}

// Via lists the intermediate airports in travel order
func (i Itinerary) Via() []string {
	if len(i.Legs) < 2 {
		return nil
	}
	via := make([]string, 0, len(i.Legs)-1)
	for _, leg := range i.Legs[:len(i.Legs)-1] {
		via = append(via, leg.Destination)
	}
	return via
}

// Carriers lists the carrier code of each leg
func (i Itinerary) Carriers() []string {
	carriers := make([]string, len(i.Legs))
	for n, leg := range i.Legs {
		carriers[n] = leg.CarrierCode
	}
	return carriers
}

// RouteLabels lists the route label of each leg
func (i Itinerary) RouteLabels() []string {
	labels := make([]string, len(i.Legs))
	for n, leg := range i.Legs {
		labels[n] = leg.RouteLabel
	}
	return labels
}

// Path renders the airport chain, e.g. "FLN-BOG-LIM"
func (i Itinerary) Path() string {
	if len(i.Legs) == 0 {
		return ""
	}
	codes := make([]string, 0, len(i.Legs)+1)
	codes = append(codes, i.Legs[0].Origin)
	for _, leg := range i.Legs {
		codes = append(codes, leg.Destination)
	}
	return strings.Join(codes, "-")
}

// PathResult groups the itineraries found between two airports by stop count
type PathResult struct {
	Direct  []Itinerary `json:"direct"`
	OneStop []Itinerary `json:"one_stop"`
	TwoStop []Itinerary `json:"two_stop"`
}

// IsEmpty reports whether no itinerary of any shape was found
func (r PathResult) IsEmpty() bool {
	return len(r.Direct) == 0 && len(r.OneStop) == 0 && len(r.TwoStop) == 0
}

// Total returns the number of itineraries across all buckets
func (r PathResult) Total() int {
	return len(r.Direct) + len(r.OneStop) + len(r.TwoStop)
}

// BestTier returns the most direct non-empty bucket's tier.
func (r PathResult) BestTier() RouteTier {
	switch {
	case len(r.Direct) > 0:
		return RouteTierDirect
	case len(r.OneStop) > 0:
		return RouteTierOneStop
	case len(r.TwoStop) > 0:
		return RouteTierTwoStop
	default:
		return RouteTierNone
	}
}

// Best returns the first itinerary of the most direct non-empty bucket
func (r PathResult) Best() (Itinerary, bool) {
	for _, bucket := range [][]Itinerary{r.Direct, r.OneStop, r.TwoStop} {
		if len(bucket) > 0 {
			return bucket[0], true
		}
	}
	return Itinerary{}, false
}
