package data

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jiaming2012/options-backtrader/src/models"
)

var ErrStoreClosed = fmt.Errorf("historical data store is closed")

const quoteColumns = "optionroot, underlying, type, strike, expiration, bid, ask, impliedvol, delta, gamma, theta, vega, underlying_last"

// QuoteStore is read-only access to the historical_data table of a quote
// dataset. It is acquired once at load time and must be closed exactly once;
// every query fails with ErrStoreClosed afterwards.
type QuoteStore struct {
	db     *sql.DB
	closed bool
}

// Open opens the SQLite dataset at dbPath. With inMemory set, the on-disk
// dataset is copied into a :memory: database and the file is not touched
// again, trading load time for query speed over a long simulation.
func Open(dbPath string, inMemory bool) (*QuoteStore, error) {
	if !inMemory {
		db, err := sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, fmt.Errorf("data: failed to open %s: %w", dbPath, err)
		}

		return &QuoteStore{db: db}, nil
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("data: failed to open in-memory database: %w", err)
	}

	// every pooled connection to :memory: is a distinct database; pin the
	// pool to one connection so the copy and all later queries share it
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("ATTACH DATABASE ? AS src", dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("data: failed to attach %s: %w", dbPath, err)
	}

	if _, err := db.Exec("CREATE TABLE historical_data AS SELECT * FROM src.historical_data"); err != nil {
		db.Close()
		return nil, fmt.Errorf("data: failed to copy historical_data into memory: %w", err)
	}

	if _, err := db.Exec("DETACH DATABASE src"); err != nil {
		db.Close()
		return nil, fmt.Errorf("data: failed to detach source database: %w", err)
	}

	return &QuoteStore{db: db}, nil
}

// OpenInMemory creates an empty in-memory store. Callers are expected to run
// CreateSchema and insert their own rows; tests and the importer use this.
func OpenInMemory() (*QuoteStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("data: failed to open in-memory database: %w", err)
	}

	db.SetMaxOpenConns(1)

	return &QuoteStore{db: db}, nil
}

func (s *QuoteStore) Close() error {
	if s.closed {
		return ErrStoreClosed
	}

	s.closed = true
	return s.db.Close()
}

func (s *QuoteStore) guard() error {
	if s.closed {
		return ErrStoreClosed
	}

	return nil
}

// Bounds returns the first and last quote dates present in the dataset.
func (s *QuoteStore) Bounds() (time.Time, time.Time, error) {
	if err := s.guard(); err != nil {
		return time.Time{}, time.Time{}, err
	}

	var minNanos, maxNanos sql.NullInt64
	row := s.db.QueryRow("SELECT MIN(quotedate), MAX(quotedate) FROM historical_data")
	if err := row.Scan(&minNanos, &maxNanos); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("data: failed to read dataset bounds: %w", err)
	}

	if !minNanos.Valid || !maxNanos.Valid {
		return time.Time{}, time.Time{}, fmt.Errorf("data: dataset is empty")
	}

	return TimeFromDB(minNanos.Int64), TimeFromDB(maxNanos.Int64), nil
}

// TradingDays returns the distinct quote dates between start and end,
// inclusive, in ascending order.
func (s *QuoteStore) TradingDays(start time.Time, end time.Time) ([]time.Time, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		"SELECT DISTINCT quotedate FROM historical_data WHERE quotedate >= ? AND quotedate <= ? ORDER BY quotedate ASC",
		TimeToDB(start), TimeToDB(end),
	)
	if err != nil {
		return nil, fmt.Errorf("data: failed to query trading days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var nanos int64
		if err := rows.Scan(&nanos); err != nil {
			return nil, fmt.Errorf("data: failed to scan trading day: %w", err)
		}

		days = append(days, TimeFromDB(nanos))
	}

	return days, rows.Err()
}

// QuoteAt returns the quote for symbol on quoteDate. A symbol with no row on
// that date yields an unresolved placeholder quote, not an error.
func (s *QuoteStore) QuoteAt(symbol string, quoteDate time.Time) (*models.Quote, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	row := s.db.QueryRow(
		"SELECT "+quoteColumns+" FROM historical_data WHERE optionroot = ? AND quotedate = ?",
		symbol, TimeToDB(quoteDate),
	)

	quote, err := scanQuote(row, quoteDate)
	if err == sql.ErrNoRows {
		return models.NewUnresolvedQuote(quoteDate, symbol), nil
	}
	if err != nil {
		return nil, fmt.Errorf("data: failed to query quote for %s: %w", symbol, err)
	}

	return quote, nil
}

// Chain returns all quotes on quoteDate whose expiration falls within
// [expiryMin, expiryMax], ascending by expiration.
func (s *QuoteStore) Chain(quoteDate time.Time, expiryMin time.Time, expiryMax time.Time) ([]*models.Quote, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		"SELECT "+quoteColumns+" FROM historical_data WHERE expiration >= ? AND expiration <= ? AND quotedate = ? ORDER BY expiration ASC",
		TimeToDB(expiryMin), TimeToDB(expiryMax), TimeToDB(quoteDate),
	)
	if err != nil {
		return nil, fmt.Errorf("data: failed to query options chain: %w", err)
	}
	defer rows.Close()

	var quotes []*models.Quote
	for rows.Next() {
		quote, err := scanQuote(rows, quoteDate)
		if err != nil {
			return nil, fmt.Errorf("data: failed to scan chain row: %w", err)
		}

		quotes = append(quotes, quote)
	}

	return quotes, rows.Err()
}

// History returns every quote for symbol with start <= quotedate <= end,
// ascending by quote date.
func (s *QuoteStore) History(symbol string, start time.Time, end time.Time) ([]*models.Quote, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		"SELECT quotedate, "+quoteColumns+" FROM historical_data WHERE optionroot = ? AND quotedate >= ? AND quotedate <= ? ORDER BY quotedate ASC",
		symbol, TimeToDB(start), TimeToDB(end),
	)
	if err != nil {
		return nil, fmt.Errorf("data: failed to query history for %s: %w", symbol, err)
	}
	defer rows.Close()

	var quotes []*models.Quote
	for rows.Next() {
		var quoteDateNanos int64
		var r quoteRowValues
		if err := rows.Scan(&quoteDateNanos, &r.symbol, &r.underlying, &r.optionType, &r.strike, &r.expiration, &r.bid, &r.ask, &r.impliedVol, &r.delta, &r.gamma, &r.theta, &r.vega, &r.underlyingLast); err != nil {
			return nil, fmt.Errorf("data: failed to scan history row: %w", err)
		}

		quotes = append(quotes, r.toQuote(TimeFromDB(quoteDateNanos)))
	}

	return quotes, rows.Err()
}

// NearestDelta returns the quote on quoteDate at expiry whose delta is
// closest to the target: the best candidate from below and from above are
// found independently and the closer one wins, ties going to the candidate
// at or below the target. A nil quote with nil error means the bracket was
// empty on at least one side.
func (s *QuoteStore) NearestDelta(delta float64, expiry time.Time, quoteDate time.Time) (*models.Quote, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	below := s.db.QueryRow(
		"SELECT "+quoteColumns+" FROM historical_data WHERE quotedate = ? AND expiration = ? AND delta <= ? ORDER BY delta DESC LIMIT 1",
		TimeToDB(quoteDate), TimeToDB(expiry), delta,
	)

	belowQuote, err := scanQuote(below, quoteDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("data: failed to query delta bracket below %f: %w", delta, err)
	}

	above := s.db.QueryRow(
		"SELECT "+quoteColumns+" FROM historical_data WHERE quotedate = ? AND expiration = ? AND delta >= ? ORDER BY delta ASC LIMIT 1",
		TimeToDB(quoteDate), TimeToDB(expiry), delta,
	)

	aboveQuote, err := scanQuote(above, quoteDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("data: failed to query delta bracket above %f: %w", delta, err)
	}

	belowDiff := abs(belowQuote.Option.Delta - delta)
	aboveDiff := abs(aboveQuote.Option.Delta - delta)

	if belowDiff <= aboveDiff {
		return belowQuote, nil
	}

	return aboveQuote, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}

type scanner interface {
	Scan(dest ...any) error
}

type quoteRowValues struct {
	symbol         string
	underlying     string
	optionType     string
	strike         float64
	expiration     int64
	bid            float64
	ask            float64
	impliedVol     float64
	delta          float64
	gamma          float64
	theta          float64
	vega           float64
	underlyingLast float64
}

func (r *quoteRowValues) toQuote(quoteDate time.Time) *models.Quote {
	option := models.NewOption(
		r.symbol,
		r.underlying,
		models.OptionTypeFromCode(r.optionType),
		r.strike,
		TimeFromDB(r.expiration),
		r.impliedVol,
		r.delta,
		r.theta,
		r.gamma,
		r.vega,
	)

	return models.NewQuote(quoteDate, option, r.bid, r.ask, r.underlyingLast)
}

func scanQuote(row scanner, quoteDate time.Time) (*models.Quote, error) {
	var r quoteRowValues
	if err := row.Scan(&r.symbol, &r.underlying, &r.optionType, &r.strike, &r.expiration, &r.bid, &r.ask, &r.impliedVol, &r.delta, &r.gamma, &r.theta, &r.vega, &r.underlyingLast); err != nil {
		return nil, err
	}

	return r.toQuote(quoteDate), nil
}
