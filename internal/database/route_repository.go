package database

import (
	"context"
	"fmt"

	"github.com/irfndi/wayfare-go/internal/models"
)

// RouteRepository loads the connection table and the airport directory.
type RouteRepository struct {
	pool DatabasePool
}

// NewRouteRepository creates a new route repository.
//
// Parameters:
//
//	pool: The database connection pool.
//
// Returns:
//
//	*RouteRepository: The initialized repository.
func NewRouteRepository(pool DatabasePool) *RouteRepository {
	return &RouteRepository{pool: pool}
}

// LoadConnections returns every scheduled leg. Null endpoints come back as
// empty strings so the route index can drop them.
func (r *RouteRepository) LoadConnections(ctx context.Context) ([]models.Connection, error) {
	query := `
		SELECT COALESCE(origin, ''), COALESCE(destination, ''),
			COALESCE(carrier_code, ''), COALESCE(carrier_name, ''), COALESCE(route_label, '')
		FROM connections
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}
	defer rows.Close()

	var conns []models.Connection
	for rows.Next() {
		var c models.Connection
		if err := rows.Scan(&c.Origin, &c.Destination, &c.CarrierCode, &c.CarrierName, &c.RouteLabel); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		conns = append(conns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}

	return conns, nil
}

// LoadAirports returns the airport directory rows
func (r *RouteRepository) LoadAirports(ctx context.Context) ([]models.Airport, error) {
	query := `
		SELECT code, COALESCE(name, ''), COALESCE(city, ''), COALESCE(country, ''),
			COALESCE(currency, ''), COALESCE(latitude, 0), COALESCE(longitude, 0)
		FROM airports
		ORDER BY code
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query airports: %w", err)
	}
	defer rows.Close()

	var airports []models.Airport
	for rows.Next() {
		var a models.Airport
		if err := rows.Scan(&a.Code, &a.Name, &a.City, &a.Country, &a.Currency, &a.Latitude, &a.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan airport: %w", err)
		}
		airports = append(airports, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating airports: %w", err)
	}

	return airports, nil
}
