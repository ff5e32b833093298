package models

import (
	"fmt"
	"time"
)

// Option describes a single listed contract as of one quote row. It is never
// mutated after construction.
type Option struct {
	Symbol            string
	UnderlyingSymbol  string
	Type              OptionType
	Strike            float64
	ExpiryDate        time.Time
	ImpliedVolatility float64
	Delta             float64
	Theta             float64
	Gamma             float64
	Vega              float64
}

func NewOption(symbol string, underlyingSymbol string, optionType OptionType, strike float64, expiryDate time.Time, impliedVolatility float64, delta float64, theta float64, gamma float64, vega float64) *Option {
	return &Option{
		Symbol:            symbol,
		UnderlyingSymbol:  underlyingSymbol,
		Type:              optionType,
		Strike:            strike,
		ExpiryDate:        expiryDate,
		ImpliedVolatility: impliedVolatility,
		Delta:             delta,
		Theta:             theta,
		Gamma:             gamma,
		Vega:              vega,
	}
}

func (o *Option) String() string {
	return fmt.Sprintf("%s %s %s %.2f exp %s (iv=%.4f delta=%.4f theta=%.4f gamma=%.4f vega=%.4f)",
		o.Symbol, o.UnderlyingSymbol, o.Type, o.Strike, o.ExpiryDate.Format("01/02/2006"),
		o.ImpliedVolatility, o.Delta, o.Theta, o.Gamma, o.Vega)
}
