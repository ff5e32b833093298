package data

import (
	"fmt"
	"time"
)

const createSchemaSQL = `
CREATE TABLE IF NOT EXISTS historical_data (
	underlying      TEXT NOT NULL,
	underlying_last REAL NOT NULL,
	optionroot      TEXT NOT NULL,
	type            TEXT NOT NULL,
	expiration      INTEGER NOT NULL,
	quotedate       INTEGER NOT NULL,
	strike          REAL NOT NULL,
	last            REAL NOT NULL,
	bid             REAL NOT NULL,
	ask             REAL NOT NULL,
	impliedvol      REAL NOT NULL,
	delta           REAL NOT NULL,
	gamma           REAL NOT NULL,
	theta           REAL NOT NULL,
	vega            REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_historical_data_symbol_date ON historical_data (optionroot, quotedate);
CREATE INDEX IF NOT EXISTS idx_historical_data_date_expiry_delta ON historical_data (quotedate, expiration, delta);
`

// QuoteRecord is one row of the historical dataset, as produced by the CSV
// importer.
type QuoteRecord struct {
	Underlying     string
	UnderlyingLast float64
	OptionRoot     string
	Type           string
	Expiration     time.Time
	QuoteDate      time.Time
	Strike         float64
	Last           float64
	Bid            float64
	Ask            float64
	ImpliedVol     float64
	Delta          float64
	Gamma          float64
	Theta          float64
	Vega           float64
}

// CreateSchema creates the historical_data table and its indexes.
func (s *QuoteStore) CreateSchema() error {
	if err := s.guard(); err != nil {
		return err
	}

	if _, err := s.db.Exec(createSchemaSQL); err != nil {
		return fmt.Errorf("data: failed to create schema: %w", err)
	}

	return nil
}

// InsertQuote appends one quote observation to the dataset.
func (s *QuoteStore) InsertQuote(record *QuoteRecord) error {
	if err := s.guard(); err != nil {
		return err
	}

	_, err := s.db.Exec(
		`INSERT INTO historical_data (underlying, underlying_last, optionroot, type, expiration, quotedate, strike, last, bid, ask, impliedvol, delta, gamma, theta, vega)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Underlying,
		record.UnderlyingLast,
		record.OptionRoot,
		record.Type,
		TimeToDB(record.Expiration),
		TimeToDB(record.QuoteDate),
		record.Strike,
		record.Last,
		record.Bid,
		record.Ask,
		record.ImpliedVol,
		record.Delta,
		record.Gamma,
		record.Theta,
		record.Vega,
	)
	if err != nil {
		return fmt.Errorf("data: failed to insert quote for %s: %w", record.OptionRoot, err)
	}

	return nil
}
