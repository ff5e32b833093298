package models

import "fmt"

type OrderType string

const (
	OrderTypeBuy  OrderType = "buy"
	OrderTypeSell OrderType = "sell"
)

func (o OrderType) Validate() error {
	if o != OrderTypeBuy && o != OrderTypeSell {
		return fmt.Errorf("OrderType: Validate: invalid order type: %s", o)
	}

	return nil
}
