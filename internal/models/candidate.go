package models

import "time"

// Candidate represents one scored destination
type Candidate struct {
	Departure    string       `json:"departure"`
	Arrival      string       `json:"arrival"`
	City         string       `json:"city"`
	Country      string       `json:"country"`
	Pair         CurrencyPair `json:"pair"`
	Rate         float64      `json:"rate"`
	RateDirect   bool         `json:"rate_direct"`
	RateAverage  float64      `json:"rate_average"`
	TrendPercent float64      `json:"trend_percent"`
	RouteTier    RouteTier    `json:"route_tier"`
	RouteQuality float64      `json:"route_quality"`
	Fare         *float64     `json:"fare"`
	Score        float64      `json:"score"`
	Itinerary    Itinerary    `json:"itinerary"`
}

// RecommendationRequest describes one ranking query
type RecommendationRequest struct {
	Origin       string   `json:"origin"`
	HomeCurrency string   `json:"home_currency"`
	Destinations []string `json:"destinations,omitempty"`
	Limit        int      `json:"limit"`
	Fresh        bool     `json:"fresh"`
	TrendWindow  int      `json:"trend_window"`
}

// Recommendation is the ranked response for a request
type Recommendation struct {
	RequestID   string      `json:"request_id"`
	Origin      string      `json:"origin"`
	Currency    string      `json:"currency"`
	Candidates  []Candidate `json:"candidates"`
	Evaluated   int         `json:"evaluated"`
	SnapshotAt  time.Time   `json:"snapshot_at"`
	GeneratedAt time.Time   `json:"generated_at"`
}
