package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/irfndi/wayfare-go/internal/models"
)

// FileTableSource serves the connection, airport and quote tables from JSON
// files holding arrays of records. It is used when no database is configured.
type FileTableSource struct {
	ConnectionsPath string
	AirportsPath    string
	QuotesPath      string
}

// LoadConnections decodes and validates the connection records file
func (f *FileTableSource) LoadConnections(_ context.Context) ([]models.Connection, error) {
	records, err := readRecords(f.ConnectionsPath)
	if err != nil {
		return nil, err
	}
	return models.ConnectionsFromRecords(records)
}

// LoadAirports decodes the airport file; a blank path means no directory
func (f *FileTableSource) LoadAirports(_ context.Context) ([]models.Airport, error) {
	if f.AirportsPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(f.AirportsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.AirportsPath, err)
	}
	var airports []models.Airport
	if err := json.Unmarshal(data, &airports); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", f.AirportsPath, err)
	}
	return airports, nil
}

// LoadQuotes decodes and validates the quote records file, keeping quotes at or after since
func (f *FileTableSource) LoadQuotes(_ context.Context, since time.Time) ([]models.Quote, error) {
	records, err := readRecords(f.QuotesPath)
	if err != nil {
		return nil, err
	}
	quotes, err := models.QuotesFromRecords(records)
	if err != nil {
		return nil, err
	}
	kept := quotes[:0]
	for _, q := range quotes {
		if !q.Timestamp.Before(since) {
			kept = append(kept, q)
		}
	}
	return kept, nil
}

func readRecords(path string) ([]models.Record, error) {
	if path == "" {
		return nil, fmt.Errorf("table file path is not configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return records, nil
}
