package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(dayOfMonth int) time.Time {
	return time.Date(2015, time.October, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func insertTestQuote(t *testing.T, store *QuoteStore, symbol string, quoteDate time.Time, expiry time.Time, bid float64, ask float64, delta float64) {
	t.Helper()

	err := store.InsertQuote(&QuoteRecord{
		Underlying:     "SPX",
		UnderlyingLast: 2000,
		OptionRoot:     symbol,
		Type:           "c",
		Expiration:     expiry,
		QuoteDate:      quoteDate,
		Strike:         2000,
		Last:           (bid + ask) / 2,
		Bid:            bid,
		Ask:            ask,
		ImpliedVol:     0.15,
		Delta:          delta,
		Gamma:          0.01,
		Theta:          -0.05,
		Vega:           0.8,
	})
	require.NoError(t, err)
}

func newTestStore(t *testing.T) *QuoteStore {
	t.Helper()

	store, err := OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, store.CreateSchema())

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestStoreBounds(t *testing.T) {
	t.Run("returns the first and last quote dates", func(t *testing.T) {
		store := newTestStore(t)
		expiry := day(16)
		insertTestQuote(t, store, "SPX1", day(5), expiry, 10, 11, 0.30)
		insertTestQuote(t, store, "SPX1", day(7), expiry, 10, 11, 0.30)
		insertTestQuote(t, store, "SPX1", day(6), expiry, 10, 11, 0.30)

		minDate, maxDate, err := store.Bounds()
		require.NoError(t, err)
		require.Equal(t, day(5), minDate)
		require.Equal(t, day(7), maxDate)
	})

	t.Run("empty dataset is an error", func(t *testing.T) {
		store := newTestStore(t)
		_, _, err := store.Bounds()
		require.Error(t, err)
	})
}

func TestStoreTradingDays(t *testing.T) {
	store := newTestStore(t)
	expiry := day(16)

	// duplicate rows on the same day must collapse to one trading day
	insertTestQuote(t, store, "SPX1", day(5), expiry, 10, 11, 0.30)
	insertTestQuote(t, store, "SPX2", day(5), expiry, 9, 10, 0.25)
	insertTestQuote(t, store, "SPX1", day(6), expiry, 10, 11, 0.30)
	insertTestQuote(t, store, "SPX1", day(7), expiry, 10, 11, 0.30)

	t.Run("distinct ascending days", func(t *testing.T) {
		days, err := store.TradingDays(day(1), day(31))
		require.NoError(t, err)
		require.Equal(t, []time.Time{day(5), day(6), day(7)}, days)
	})

	t.Run("narrowed bounds are inclusive", func(t *testing.T) {
		days, err := store.TradingDays(day(6), day(7))
		require.NoError(t, err)
		require.Equal(t, []time.Time{day(6), day(7)}, days)
	})
}

func TestStoreQuoteAt(t *testing.T) {
	store := newTestStore(t)
	expiry := day(16)
	insertTestQuote(t, store, "SPX1", day(5), expiry, 10, 11, 0.30)

	t.Run("exact match is resolved", func(t *testing.T) {
		quote, err := store.QuoteAt("SPX1", day(5))
		require.NoError(t, err)
		require.True(t, quote.Resolved())
		require.Equal(t, 10.0, quote.Bid)
		require.Equal(t, 11.0, quote.Ask)
		require.Equal(t, expiry, quote.Option.ExpiryDate)
		require.Equal(t, 0.30, quote.Option.Delta)
	})

	t.Run("miss yields an unresolved placeholder, not an error", func(t *testing.T) {
		quote, err := store.QuoteAt("MISSING", day(5))
		require.NoError(t, err)
		require.False(t, quote.Resolved())
		require.Equal(t, "MISSING", quote.Symbol())
	})

	t.Run("wrong date is also a miss", func(t *testing.T) {
		quote, err := store.QuoteAt("SPX1", day(6))
		require.NoError(t, err)
		require.False(t, quote.Resolved())
	})
}

func TestStoreChain(t *testing.T) {
	store := newTestStore(t)

	insertTestQuote(t, store, "SPX_NEAR", day(5), day(9), 5, 6, 0.40)
	insertTestQuote(t, store, "SPX_MID", day(5), day(16), 10, 11, 0.30)
	insertTestQuote(t, store, "SPX_FAR", day(5), day(23), 15, 16, 0.20)
	insertTestQuote(t, store, "SPX_OTHER_DAY", day(6), day(16), 10, 11, 0.30)

	t.Run("ascending by expiration", func(t *testing.T) {
		quotes, err := store.Chain(day(5), day(1), day(31))
		require.NoError(t, err)
		require.Len(t, quotes, 3)
		require.Equal(t, "SPX_NEAR", quotes[0].Symbol())
		require.Equal(t, "SPX_MID", quotes[1].Symbol())
		require.Equal(t, "SPX_FAR", quotes[2].Symbol())
	})

	t.Run("expiry window filters", func(t *testing.T) {
		quotes, err := store.Chain(day(5), day(10), day(20))
		require.NoError(t, err)
		require.Len(t, quotes, 1)
		require.Equal(t, "SPX_MID", quotes[0].Symbol())
	})
}

func TestStoreHistory(t *testing.T) {
	store := newTestStore(t)
	expiry := day(16)
	insertTestQuote(t, store, "SPX1", day(7), expiry, 12, 13, 0.32)
	insertTestQuote(t, store, "SPX1", day(5), expiry, 10, 11, 0.30)
	insertTestQuote(t, store, "SPX1", day(6), expiry, 11, 12, 0.31)
	insertTestQuote(t, store, "SPX2", day(6), expiry, 9, 10, 0.25)

	history, err := store.History("SPX1", day(5), day(7))
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, day(5), history[0].QuoteDate)
	require.Equal(t, day(6), history[1].QuoteDate)
	require.Equal(t, day(7), history[2].QuoteDate)
}

func TestStoreNearestDelta(t *testing.T) {
	store := newTestStore(t)
	expiry := day(16)
	insertTestQuote(t, store, "SPX_D20", day(5), expiry, 5, 6, 0.20)
	insertTestQuote(t, store, "SPX_D28", day(5), expiry, 8, 9, 0.28)
	insertTestQuote(t, store, "SPX_D35", day(5), expiry, 11, 12, 0.35)

	t.Run("closer bracket side wins", func(t *testing.T) {
		quote, err := store.NearestDelta(0.30, expiry, day(5))
		require.NoError(t, err)
		require.NotNil(t, quote)
		require.Equal(t, "SPX_D28", quote.Symbol())
	})

	t.Run("exact match wins outright", func(t *testing.T) {
		quote, err := store.NearestDelta(0.35, expiry, day(5))
		require.NoError(t, err)
		require.NotNil(t, quote)
		require.Equal(t, "SPX_D35", quote.Symbol())
	})

	t.Run("tie resolves to the at-or-below candidate", func(t *testing.T) {
		// deltas and target chosen to be exactly representable so the two
		// bracket distances compare equal
		tieExpiry := day(23)
		insertTestQuote(t, store, "SPX_D25", day(5), tieExpiry, 5, 6, 0.25)
		insertTestQuote(t, store, "SPX_D50", day(5), tieExpiry, 11, 12, 0.50)

		quote, err := store.NearestDelta(0.375, tieExpiry, day(5))
		require.NoError(t, err)
		require.NotNil(t, quote)
		require.Equal(t, "SPX_D25", quote.Symbol())
	})

	t.Run("empty bracket above returns no match", func(t *testing.T) {
		quote, err := store.NearestDelta(0.50, expiry, day(5))
		require.NoError(t, err)
		require.Nil(t, quote)
	})

	t.Run("empty bracket below returns no match", func(t *testing.T) {
		quote, err := store.NearestDelta(0.10, expiry, day(5))
		require.NoError(t, err)
		require.Nil(t, quote)
	})

	t.Run("wrong expiry returns no match", func(t *testing.T) {
		quote, err := store.NearestDelta(0.30, day(30), day(5))
		require.NoError(t, err)
		require.Nil(t, quote)
	})
}

func TestStoreClosed(t *testing.T) {
	store, err := OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, store.CreateSchema())
	require.NoError(t, store.Close())

	t.Run("double close is an error", func(t *testing.T) {
		require.ErrorIs(t, store.Close(), ErrStoreClosed)
	})

	t.Run("queries fail after close", func(t *testing.T) {
		_, _, err := store.Bounds()
		require.ErrorIs(t, err, ErrStoreClosed)

		_, err = store.TradingDays(day(1), day(31))
		require.ErrorIs(t, err, ErrStoreClosed)

		_, err = store.QuoteAt("SPX1", day(5))
		require.ErrorIs(t, err, ErrStoreClosed)

		_, err = store.Chain(day(5), day(1), day(31))
		require.ErrorIs(t, err, ErrStoreClosed)

		_, err = store.History("SPX1", day(1), day(31))
		require.ErrorIs(t, err, ErrStoreClosed)

		_, err = store.NearestDelta(0.30, day(16), day(5))
		require.ErrorIs(t, err, ErrStoreClosed)

		require.ErrorIs(t, store.CreateSchema(), ErrStoreClosed)
		require.ErrorIs(t, store.InsertQuote(&QuoteRecord{}), ErrStoreClosed)
	})
}

func TestTimeCodec(t *testing.T) {
	original := time.Date(2015, time.October, 5, 13, 30, 0, 0, time.UTC)
	require.Equal(t, original, TimeFromDB(TimeToDB(original)))
}
