package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/options-backtrader/src/broker"
)

// EquityPoint is one day of the equity curve: the account's cash and
// mark-to-market value at the close of a simulated trading day.
type EquityPoint struct {
	Date        time.Time
	Cash        float64
	MarketValue float64
}

// BacktestSummary holds the metrics computed from a completed run.
type BacktestSummary struct {
	RunID             uuid.UUID
	StartDate         time.Time
	EndDate           time.Time
	TradingDays       int
	InitialCash       float64
	FinalCash         float64
	FinalMarketValue  float64
	TotalReturn       float64
	MeanDailyReturn   float64
	DailyReturnStdDev float64
	MaxDrawdown       float64
	Executions        int
}

// RunBacktest drives the trader through the broker in step mode, recording
// the equity curve once per trading day. The broker must have its historical
// data loaded; start and end default to the dataset's span.
func RunBacktest(b *broker.OptionsBroker, trader broker.Trader, startDate time.Time, endDate time.Time) (*BacktestSummary, []EquityPoint, error) {
	runID := uuid.New()

	days, err := b.GetTradingDays(startDate, endDate)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch trading days: %w", err)
	}

	if len(days) == 0 {
		return nil, nil, fmt.Errorf("no trading days between %s and %s", startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	}

	if err := b.Start(startDate, endDate, true); err != nil {
		return nil, nil, fmt.Errorf("failed to start simulation: %w", err)
	}

	account := b.Account()

	log.Infof("backtest %s: starting with cash %.2f over %d trading days", runID, account.Cash(), len(days))

	var curve []EquityPoint
	for range days {
		b.Step()

		currentDate := b.CurrentDate()

		if err := trader.Step(currentDate, b, account); err != nil {
			b.Stop()
			return nil, nil, fmt.Errorf("trader step failed on %s: %w", currentDate.Format("2006-01-02"), err)
		}

		marketValue, err := account.GetMarketValue(b, time.Time{})
		if err != nil {
			b.Stop()
			return nil, nil, fmt.Errorf("failed to mark account to market on %s: %w", currentDate.Format("2006-01-02"), err)
		}

		curve = append(curve, EquityPoint{
			Date:        currentDate,
			Cash:        account.Cash(),
			MarketValue: marketValue,
		})
	}

	summary, err := Summarize(runID, account.InitialCash(), curve, len(account.GetExecutions()))
	if err != nil {
		return nil, nil, err
	}

	log.Infof("backtest %s: complete, total return %.3f%%", runID, summary.TotalReturn*100)

	return summary, curve, nil
}

// Summarize computes run metrics from an equity curve.
func Summarize(runID uuid.UUID, initialCash float64, curve []EquityPoint, executions int) (*BacktestSummary, error) {
	if len(curve) == 0 {
		return nil, fmt.Errorf("cannot summarize an empty equity curve")
	}

	first := curve[0]
	last := curve[len(curve)-1]

	summary := &BacktestSummary{
		RunID:            runID,
		StartDate:        first.Date,
		EndDate:          last.Date,
		TradingDays:      len(curve),
		InitialCash:      initialCash,
		FinalCash:        last.Cash,
		FinalMarketValue: last.MarketValue,
		Executions:       executions,
	}

	if initialCash != 0 {
		summary.TotalReturn = (last.MarketValue - initialCash) / initialCash
	}

	dailyReturns := make([]float64, 0, len(curve))
	previous := initialCash
	for _, point := range curve {
		if previous != 0 {
			dailyReturns = append(dailyReturns, (point.MarketValue-previous)/previous)
		}

		previous = point.MarketValue
	}

	if len(dailyReturns) > 0 {
		mean, err := stats.Mean(dailyReturns)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate mean daily return: %v", err)
		}

		stdDev, err := stats.StandardDeviation(dailyReturns)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate daily return standard deviation: %v", err)
		}

		summary.MeanDailyReturn = mean
		summary.DailyReturnStdDev = stdDev
	}

	summary.MaxDrawdown = maxDrawdown(curve)

	return summary, nil
}

// maxDrawdown returns the largest peak-to-trough decline of the market value
// curve, as a positive fraction of the peak.
func maxDrawdown(curve []EquityPoint) float64 {
	var peak, drawdown float64

	for _, point := range curve {
		if point.MarketValue > peak {
			peak = point.MarketValue
		}

		if peak > 0 {
			dd := (peak - point.MarketValue) / peak
			if dd > drawdown {
				drawdown = dd
			}
		}
	}

	return drawdown
}
