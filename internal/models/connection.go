package models

import "strings"

// Connection represents one scheduled point-to-point leg
type Connection struct {
	Origin      string `json:"origin" db:"origin"`
	Destination string `json:"destination" db:"destination"`
	CarrierCode string `json:"carrier_code" db:"carrier_code"`
	CarrierName string `json:"carrier_name" db:"carrier_name"`
	RouteLabel  string `json:"route_label" db:"route_label"`
}

// IsIndexable reports whether both endpoints are present
func (c Connection) IsIndexable() bool {
	return strings.TrimSpace(c.Origin) != "" && strings.TrimSpace(c.Destination) != ""
}

// Airport holds the directory metadata used to enrich itineraries and
// to find a destination's local currency.
type Airport struct {
	Code      string  `json:"code" db:"code"`
	Name      string  `json:"name" db:"name"`
	City      string  `json:"city" db:"city"`
	Country   string  `json:"country" db:"country"`
	Currency  string  `json:"currency" db:"currency"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// AirportDirectory maps airport codes to their metadata
type AirportDirectory map[string]Airport

// NewAirportDirectory indexes airports by code, skipping blank codes
func NewAirportDirectory(airports []Airport) AirportDirectory {
	dir := make(AirportDirectory, len(airports))
	for _, a := range airports {
		code := strings.ToUpper(strings.TrimSpace(a.Code))
		if code == "" {
			continue
		}
		a.Code = code
		dir[code] = a
	}
	return dir
}

// Lookup returns the airport for code, or a stub carrying only the code
func (d AirportDirectory) Lookup(code string) Airport {
	if a, ok := d[code]; ok {
		return a
	}
	return Airport{Code: code}
}
