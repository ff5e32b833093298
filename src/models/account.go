package models

import (
	"time"
)

// MarketPricer is the pricing surface the account needs to mark open
// positions to market. The options broker satisfies it.
type MarketPricer interface {
	GetOptionQuote(symbol string, quoteDate time.Time) (*Quote, error)
	GetMarketOrderPriceForQuote(quote *Quote, isBuy bool) float64
}

// Account is the ledger: a cash balance, at most one open Position per
// symbol, and an append-only chronological execution log. Cash is the single
// source of truth for realized P&L.
type Account struct {
	initialCash float64
	cash        float64
	positions   map[string]*Position
	executions  []*Execution
}

func NewAccount(cash float64) *Account {
	return &Account{
		initialCash: cash,
		cash:        cash,
		positions:   make(map[string]*Position),
		executions:  make([]*Execution, 0),
	}
}

func (a *Account) Cash() float64 {
	return a.cash
}

// SetCash replaces the cash balance. The first nonzero assignment also
// latches the account's initial cash, the baseline for P&L percentages.
func (a *Account) SetCash(cash float64) {
	if a.initialCash == 0 {
		a.initialCash = cash
	}

	a.cash = cash
}

func (a *Account) InitialCash() float64 {
	return a.initialCash
}

func (a *Account) GetPositions() []*Position {
	positions := make([]*Position, 0, len(a.positions))
	for _, position := range a.positions {
		positions = append(positions, position)
	}

	return positions
}

// GetPosition returns the open position for symbol, or nil if there is none.
func (a *Account) GetPosition(symbol string) *Position {
	return a.positions[symbol]
}

func (a *Account) GetExecutions() []*Execution {
	return a.executions
}

// UpdateFromExecution applies one fill to the ledger. Direction transitions:
//
//   - no position: open one; cash is debited by price x size for both buys
//     and sells (opening a short consumes cash in this bookkeeping).
//   - same direction: size accumulates and the book value becomes the plain
//     average of the old book value and the new signed price.
//   - opposite direction, equal size: the position is removed. Closing a long
//     credits the execution value; closing a short credits twice the short's
//     book magnitude minus the execution value.
//   - opposite direction, larger size: the position flips. The old exposure
//     settles as a full close, then the remainder opens at the new price.
//   - opposite direction, smaller size: partial close. Size shrinks by the
//     execution size, book value is retained, and cash settles with the
//     full-close formulas applied to the closed portion only.
//
// The execution is appended to the log on every path.
func (a *Account) UpdateFromExecution(execution *Execution) {
	a.executions = append(a.executions, execution)

	existing, found := a.positions[execution.Symbol]
	if !found {
		a.positions[execution.Symbol] = NewPositionFromExecution(execution)
		a.cash -= execution.GetTotalValue()
		return
	}

	reducing := (existing.BookValue < 0 && execution.OrderType == OrderTypeBuy) ||
		(existing.BookValue > 0 && execution.OrderType == OrderTypeSell)

	if !reducing {
		existing.Size += execution.Size
		if execution.OrderType == OrderTypeBuy {
			existing.BookValue = (existing.BookValue + execution.Price) / 2.0
		} else {
			existing.BookValue = (existing.BookValue - execution.Price) / 2.0
		}

		a.cash -= execution.GetTotalValue()
		return
	}

	switch {
	case execution.Size == existing.Size:
		// full close
		if existing.BookValue > 0 {
			a.cash += execution.GetTotalValue()
		} else {
			a.cash += -existing.GetTotalBookValue()*2 - execution.GetTotalValue()
		}

		delete(a.positions, existing.Symbol)

	case execution.Size > existing.Size:
		// flip: settle the old exposure, then open the remainder at the new
		// price with the new direction
		flipped := NewPositionFromExecution(execution)
		flipped.Size = execution.Size - existing.Size
		a.positions[existing.Symbol] = flipped

		if execution.OrderType == OrderTypeBuy {
			a.cash += -existing.GetTotalBookValue()*2 - existing.Size*execution.Price
		} else {
			a.cash += existing.Size * execution.Price
		}

		a.cash -= flipped.Size * execution.Price

	default:
		// partial close: book value is retained for the remaining exposure
		if existing.BookValue > 0 {
			a.cash += execution.GetTotalValue()
		} else {
			a.cash += -existing.BookValue*execution.Size*2 - execution.GetTotalValue()
		}

		existing.Size -= execution.Size
	}
}

// GetPercentCashPL returns realized P&L as a fraction of initial cash.
func (a *Account) GetPercentCashPL() float64 {
	if a.initialCash == 0 {
		return 0
	}

	return (a.cash - a.initialCash) / a.initialCash
}

// GetMarketValue marks the account to market: cash plus the exit value of
// every open position at current quotes. Long positions are valued at their
// sell-side exit price; short positions at their buy-side cover price, with
// twice the original short credit added back so that marking then closing
// equals closing directly. A zero quoteDate uses the broker's current date.
func (a *Account) GetMarketValue(broker MarketPricer, quoteDate time.Time) (float64, error) {
	value := a.cash

	for _, position := range a.positions {
		quote, err := broker.GetOptionQuote(position.Symbol, quoteDate)
		if err != nil {
			return 0, err
		}

		isBuy := position.BookValue < 0
		exitPrice := broker.GetMarketOrderPriceForQuote(quote, isBuy)

		direction := 1.0
		shortCredit := 0.0
		if position.BookValue < 0 {
			direction = -1.0
			shortCredit = position.GetTotalBookValue() * 2
		}

		value += exitPrice*direction*position.Size - shortCredit
	}

	return value, nil
}

// GetPercentMarketValuePL returns mark-to-market P&L as a fraction of
// initial cash.
func (a *Account) GetPercentMarketValuePL(broker MarketPricer, quoteDate time.Time) (float64, error) {
	if a.initialCash == 0 {
		return 0, nil
	}

	marketValue, err := a.GetMarketValue(broker, quoteDate)
	if err != nil {
		return 0, err
	}

	return (marketValue - a.initialCash) / a.initialCash, nil
}
