package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/irfndi/wayfare-go/internal/utils"
)

// Required fields for loosely typed table records.
var (
	ConnectionFields = []string{"origin", "destination", "carrier_code", "carrier_name", "route_label"}
	QuoteFields      = []string{"symbol", "timestamp", "close"}
)

// Record is one row of a table decoded from a raw payload
type Record map[string]interface{}

func checkFields(table string, i int, rec Record, fields []string) error {
	for _, f := range fields {
		if _, ok := rec[f]; !ok {
			return utils.NewValidationErrorf("%s record %d: missing required field %q", table, i, f)
		}
	}
	return nil
}

// ConnectionsFromRecords converts raw records into connections.
// A record that lacks a required field fails the whole table. Fields that
// are present but null or blank are kept so the index builder can drop them.
func ConnectionsFromRecords(records []Record) ([]Connection, error) {
	conns := make([]Connection, 0, len(records))
	for i, rec := range records {
		if err := checkFields("connection", i, rec, ConnectionFields); err != nil {
			return nil, err
		}
		conns = append(conns, Connection{
			Origin:      strings.ToUpper(stringField(rec["origin"])),
			Destination: strings.ToUpper(stringField(rec["destination"])),
			CarrierCode: stringField(rec["carrier_code"]),
			CarrierName: stringField(rec["carrier_name"]),
			RouteLabel:  stringField(rec["route_label"]),
		})
	}
	return conns, nil
}

// QuotesFromRecords converts raw records into quotes. Timestamps may be
// RFC 3339 strings, "2006-01-02" dates or unix seconds; closes may be
// numbers or numeric strings. Null or blank timestamps and closes come back
// as zero values, which NewQuoteTable skips.
func QuotesFromRecords(records []Record) ([]Quote, error) {
	quotes := make([]Quote, 0, len(records))
	for i, rec := range records {
		if err := checkFields("quote", i, rec, QuoteFields); err != nil {
			return nil, err
		}
		ts, err := timeField(rec["timestamp"])
		if err != nil {
			return nil, utils.NewValidationErrorf("quote record %d: %v", i, err)
		}
		closeValue, err := floatField(rec["close"])
		if err != nil {
			return nil, utils.NewValidationErrorf("quote record %d: %v", i, err)
		}
		quotes = append(quotes, Quote{
			Symbol:    stringField(rec["symbol"]),
			Timestamp: ts,
			Close:     closeValue,
		})
	}
	return quotes, nil
}

func stringField(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

func floatField(v interface{}) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		if strings.TrimSpace(n) == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid close %q: %w", n, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported close type %T", v)
	}
}

func timeField(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case float64:
		return time.Unix(int64(t), 0).UTC(), nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case int:
		return time.Unix(int64(t), 0).UTC(), nil
	case string:
		if strings.TrimSpace(t) == "" {
			return time.Time{}, nil
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("invalid timestamp %q", t)
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}
