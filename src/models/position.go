package models

import "fmt"

// Position is one open exposure. BookValue is the signed price per unit:
// positive means long, negative means short. Size is always positive.
type Position struct {
	Symbol    string
	BookValue float64
	Size      float64
	Option    *Option
}

func NewPosition(symbol string, bookValue float64, size float64, option *Option) (*Position, error) {
	if symbol == "" {
		return nil, fmt.Errorf("NewPosition: symbol cannot be empty")
	}

	return &Position{
		Symbol:    symbol,
		BookValue: bookValue,
		Size:      size,
		Option:    option,
	}, nil
}

// NewPositionFromExecution opens a position matching the execution: a buy
// books at +price, a sell books at -price.
func NewPositionFromExecution(execution *Execution) *Position {
	bookValue := execution.Price
	if execution.OrderType == OrderTypeSell {
		bookValue = -execution.Price
	}

	return &Position{
		Symbol:    execution.Symbol,
		BookValue: bookValue,
		Size:      execution.Size,
		Option:    execution.Option,
	}
}

// GetTotalBookValue returns the signed notional carried on the book.
func (p *Position) GetTotalBookValue() float64 {
	return p.BookValue * p.Size
}

func (p *Position) String() string {
	return fmt.Sprintf("position %s qty: %.0f book value: %.2f", p.Symbol, p.Size, p.BookValue)
}
