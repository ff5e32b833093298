package models

import "fmt"

var (
	ErrInvalidLiquidityRisk = fmt.Errorf("invalid liquidity risk: must be between 0 and 1")
	ErrInvalidCommission    = fmt.Errorf("invalid commission: cannot be negative")
)
