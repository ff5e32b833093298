package strategies

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/options-backtrader/src/broker"
	"github.com/jiaming2012/options-backtrader/src/models"
)

var _ broker.Trader = (*NearestDeltaBuyer)(nil)

// NearestDeltaBuyer holds at most one long option position: it buys the
// contract nearest TargetDelta at the first listed expiry at least
// DaysToExpiry out, and closes it on the expiry date.
type NearestDeltaBuyer struct {
	TargetDelta  float64
	DaysToExpiry int
	Size         float64
}

func NewNearestDeltaBuyer(targetDelta float64, daysToExpiry int, size float64) *NearestDeltaBuyer {
	return &NearestDeltaBuyer{
		TargetDelta:  targetDelta,
		DaysToExpiry: daysToExpiry,
		Size:         size,
	}
}

func (s *NearestDeltaBuyer) Step(currentDate time.Time, b *broker.OptionsBroker, account *models.Account) error {
	for _, position := range account.GetPositions() {
		if position.Option != nil && !position.Option.ExpiryDate.After(currentDate) {
			if _, err := b.Close(position); err != nil {
				return err
			}

			log.Infof("%s: closed %s at expiry", currentDate.Format("2006-01-02"), position.Symbol)
		}
	}

	if len(account.GetPositions()) > 0 {
		return nil
	}

	expiry, err := s.pickExpiry(currentDate, b)
	if err != nil {
		return err
	}

	if expiry.IsZero() {
		return nil
	}

	quote, err := b.FindOption(s.TargetDelta, expiry, time.Time{})
	if err != nil {
		return err
	}

	if quote == nil || !quote.Resolved() || quote.Ask <= 0 {
		return nil
	}

	if _, err := b.Buy("", quote, s.Size); err != nil {
		return err
	}

	log.Infof("%s: bought %s (delta %.3f, expiry %s)", currentDate.Format("2006-01-02"), quote.Symbol(), quote.Option.Delta, expiry.Format("2006-01-02"))

	return nil
}

// pickExpiry returns the first expiry listed on currentDate that is at least
// DaysToExpiry away, or the zero time when the chain has none.
func (s *NearestDeltaBuyer) pickExpiry(currentDate time.Time, b *broker.OptionsBroker) (time.Time, error) {
	target := currentDate.AddDate(0, 0, s.DaysToExpiry)

	// the default expiry ceiling is the dataset's last quote date, which can
	// sit before the listed expiries near the end of a run; look two months
	// out instead
	chain, err := b.GetOptionsChain(time.Time{}, target, target.AddDate(0, 2, 0))
	if err != nil {
		return time.Time{}, err
	}

	if len(chain) == 0 {
		return time.Time{}, nil
	}

	// chain is ascending by expiration
	return chain[0].Option.ExpiryDate, nil
}
