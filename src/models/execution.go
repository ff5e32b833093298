package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Execution is a completed fill. Price always stores the unsigned magnitude;
// direction is carried by OrderType alone. Executions are appended to the
// account's log and never removed.
type Execution struct {
	ID        uuid.UUID
	Symbol    string
	Price     float64
	Size      float64
	Option    *Option
	OrderType OrderType
}

func NewExecution(symbol string, price float64, size float64, option *Option, orderType OrderType) *Execution {
	if price < 0 {
		price = -price
	}

	return &Execution{
		ID:        uuid.New(),
		Symbol:    symbol,
		Price:     price,
		Size:      size,
		Option:    option,
		OrderType: orderType,
	}
}

// GetTotalValue returns price x size, the unsigned notional of the fill.
func (e *Execution) GetTotalValue() float64 {
	return e.Price * e.Size
}

func (e *Execution) String() string {
	return fmt.Sprintf("order %s qty: %.0f price: %.2f [%s]", e.OrderType, e.Size, e.Price, e.Symbol)
}
