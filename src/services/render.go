package services

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/jiaming2012/options-backtrader/src/broker"
	"github.com/jiaming2012/options-backtrader/src/models"
)

// RenderSummary writes the run metrics as a two-column table.
func RenderSummary(w io.Writer, summary *BacktestSummary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	table.Append([]string{"Run ID", summary.RunID.String()})
	table.Append([]string{"Start Date", summary.StartDate.Format("2006-01-02")})
	table.Append([]string{"End Date", summary.EndDate.Format("2006-01-02")})
	table.Append([]string{"Trading Days", fmt.Sprintf("%d", summary.TradingDays)})
	table.Append([]string{"Initial Cash", fmt.Sprintf("%.2f", summary.InitialCash)})
	table.Append([]string{"Final Cash", fmt.Sprintf("%.2f", summary.FinalCash)})
	table.Append([]string{"Final Market Value", fmt.Sprintf("%.2f", summary.FinalMarketValue)})
	table.Append([]string{"Total Return", fmt.Sprintf("%.3f%%", summary.TotalReturn*100)})
	table.Append([]string{"Mean Daily Return", fmt.Sprintf("%.4f%%", summary.MeanDailyReturn*100)})
	table.Append([]string{"Daily Return Std Dev", fmt.Sprintf("%.4f%%", summary.DailyReturnStdDev*100)})
	table.Append([]string{"Max Drawdown", fmt.Sprintf("%.3f%%", summary.MaxDrawdown*100)})
	table.Append([]string{"Executions", fmt.Sprintf("%d", summary.Executions)})

	table.Render()
}

// RenderPositions writes the account's open positions with their current
// exit prices, one row per position.
func RenderPositions(w io.Writer, b *broker.OptionsBroker, account *models.Account, quoteDate time.Time) error {
	positions := account.GetPositions()
	if len(positions) == 0 {
		fmt.Fprintln(w, "no open positions")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Symbol", "Size", "Book Value", "Exit Price"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, position := range positions {
		quote, err := b.GetOptionQuote(position.Symbol, quoteDate)
		if err != nil {
			return err
		}

		exitPrice := b.GetMarketOrderPriceForQuote(quote, position.BookValue < 0)

		table.Append([]string{
			position.Symbol,
			fmt.Sprintf("%.0f", position.Size),
			fmt.Sprintf("%.2f", position.BookValue),
			fmt.Sprintf("%.2f", exitPrice),
		})
	}

	table.Render()
	return nil
}
