package services

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/wayfare-go/internal/models"
)

var fixtureStart = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func conn(origin, destination, carrier string) models.Connection {
	return models.Connection{
		Origin:      origin,
		Destination: destination,
		CarrierCode: carrier,
		CarrierName: carrier + " Airlines",
		RouteLabel:  origin + "-" + destination,
	}
}

// series builds daily quotes for base/quote starting at fixtureStart
func series(base, quote string, closes ...float64) []models.Quote {
	out := make([]models.Quote, len(closes))
	for i, c := range closes {
		out[i] = models.Quote{
			Symbol:    models.PairSymbol(base, quote),
			Timestamp: fixtureStart.AddDate(0, 0, i),
			Close:     c,
		}
	}
	return out
}

func quoteTable(groups ...[]models.Quote) *models.QuoteTable {
	var all []models.Quote
	for _, g := range groups {
		all = append(all, g...)
	}
	return models.NewQuoteTable(all)
}

// flat returns n copies of v
func flat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
