package broker

import (
	"time"

	"github.com/jiaming2012/options-backtrader/src/models"
)

// Trader is the strategy under test. Step is invoked once per simulated
// trading day; side effects happen entirely through broker buy/sell/close
// calls. A returned error aborts the simulation run.
type Trader interface {
	Step(currentDate time.Time, broker *OptionsBroker, account *models.Account) error
}
