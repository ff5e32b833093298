package main

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/options-backtrader/src/broker"
	"github.com/jiaming2012/options-backtrader/src/models"
	"github.com/jiaming2012/options-backtrader/src/services"
	"github.com/jiaming2012/options-backtrader/src/strategies"
	"github.com/jiaming2012/options-backtrader/src/utils"
)

var runCmd = &cobra.Command{
	Use:   "backtest --config backtest.yaml",
	Short: "Replay a strategy against a historical options quote dataset",
	Run: func(cmd *cobra.Command, args []string) {
		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			log.Fatalf("error getting config: %v", err)
		}

		if err := utils.InitEnvironmentVariables("."); err != nil {
			log.Fatalf("error loading environment variables: %v", err)
		}

		if err := run(configPath); err != nil {
			log.Fatalf("Error: %v", err)
		}
	},
}

func run(configPath string) error {
	config, err := services.LoadRunConfig(configPath)
	if err != nil {
		return err
	}

	startDate, err := services.ParseDate(config.StartDate)
	if err != nil {
		return err
	}

	endDate, err := services.ParseDate(config.EndDate)
	if err != nil {
		return err
	}

	account := models.NewAccount(config.InitialCash)
	b := broker.NewOptionsBroker(account)

	if err := b.SetLiquidityRisk(config.LiquidityRisk); err != nil {
		return err
	}

	if err := b.SetCommission(config.Commission); err != nil {
		return err
	}

	if err := b.LoadHistoricalData(config.DBPath, config.Fidelity, config.InMemory); err != nil {
		return err
	}
	defer b.Shutdown()

	trader := strategies.NewNearestDeltaBuyer(config.Strategy.TargetDelta, config.Strategy.DaysToExpiry, config.Strategy.Size)

	summary, _, err := services.RunBacktest(b, trader, startDate, endDate)
	if err != nil {
		return err
	}

	services.RenderSummary(os.Stdout, summary)

	if err := services.RenderPositions(os.Stdout, b, account, time.Time{}); err != nil {
		return err
	}

	return nil
}

func main() {
	runCmd.Flags().String("config", "backtest.yaml", "path to the run configuration file")

	if err := runCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
