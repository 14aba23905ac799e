package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/irfndi/wayfare-go/internal/models"
)

// QuoteRepository reads FX quotes and route fares.
type QuoteRepository struct {
	pool DatabasePool
}

// NewQuoteRepository creates a new quote repository.
func NewQuoteRepository(pool DatabasePool) *QuoteRepository {
	return &QuoteRepository{pool: pool}
}

// LoadQuotes returns every quote observed at or after since, ordered by symbol and time.
func (r *QuoteRepository) LoadQuotes(ctx context.Context, since time.Time) ([]models.Quote, error) {
	query := `
		SELECT symbol, observed_at, close::float8
		FROM fx_quotes
		WHERE observed_at >= $1
		ORDER BY symbol, observed_at
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	var quotes []models.Quote
	for rows.Next() {
		var q models.Quote
		if err := rows.Scan(&q.Symbol, &q.Timestamp, &q.Close); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quotes: %w", err)
	}

	return quotes, nil
}

// LatestFare returns the most recent fare for origin->destination.
// The boolean is false when no fare has been recorded.
func (r *QuoteRepository) LatestFare(ctx context.Context, origin, destination string) (float64, bool, error) {
	query := `
		SELECT price::float8
		FROM fares
		WHERE origin = $1 AND destination = $2
		ORDER BY observed_at DESC
		LIMIT 1
	`

	var price float64
	err := r.pool.QueryRow(ctx, query, origin, destination).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query fare: %w", err)
	}

	return price, true, nil
}
