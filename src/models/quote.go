package models

import (
	"fmt"
	"time"
)

// Quote is one priced snapshot of an option. A quote is either resolved,
// carrying the priced Option, or unresolved, carrying only the symbol that
// missed the lookup. Unresolved quotes price at zero; callers that place
// orders against them get zero-value fills rather than an error.
type Quote struct {
	QuoteDate      time.Time
	Option         *Option
	Bid            float64
	Ask            float64
	UnderlyingLast float64

	symbol string
}

func NewQuote(quoteDate time.Time, option *Option, bid float64, ask float64, underlyingLast float64) *Quote {
	return &Quote{
		QuoteDate:      quoteDate,
		Option:         option,
		Bid:            bid,
		Ask:            ask,
		UnderlyingLast: underlyingLast,
		symbol:         option.Symbol,
	}
}

// NewUnresolvedQuote is the placeholder returned when a symbol has no quote
// row on the requested date.
func NewUnresolvedQuote(quoteDate time.Time, symbol string) *Quote {
	return &Quote{
		QuoteDate: quoteDate,
		symbol:    symbol,
	}
}

// Resolved reports whether the quote carries a priced Option.
func (q *Quote) Resolved() bool {
	return q.Option != nil
}

func (q *Quote) Symbol() string {
	return q.symbol
}

func (q *Quote) String() string {
	if !q.Resolved() {
		return fmt.Sprintf("quote %s @ %s: unresolved", q.symbol, q.QuoteDate.Format("01/02/2006"))
	}

	return fmt.Sprintf("quote %s @ %s: bid=%.2f ask=%.2f last=%.2f", q.symbol, q.QuoteDate.Format("01/02/2006"), q.Bid, q.Ask, q.UnderlyingLast)
}
