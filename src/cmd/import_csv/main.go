package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/options-backtrader/src/data"
)

// quoteRowDTO mirrors one row of the raw quote CSV export.
type quoteRowDTO struct {
	Underlying     string  `csv:"underlying"`
	UnderlyingLast float64 `csv:"underlying_last"`
	OptionRoot     string  `csv:"optionroot"`
	Type           string  `csv:"type"`
	Expiration     string  `csv:"expiration"`
	QuoteDate      string  `csv:"quotedate"`
	Strike         float64 `csv:"strike"`
	Last           float64 `csv:"last"`
	Bid            float64 `csv:"bid"`
	Ask            float64 `csv:"ask"`
	ImpliedVol     float64 `csv:"impliedvol"`
	Delta          float64 `csv:"delta"`
	Gamma          float64 `csv:"gamma"`
	Theta          float64 `csv:"theta"`
	Vega           float64 `csv:"vega"`
}

var dateLayouts = []string{"2006-01-02", "01/02/2006", "1/2/2006"}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date format: %q", value)
}

func (dto *quoteRowDTO) toRecord() (*data.QuoteRecord, error) {
	expiration, err := parseDate(dto.Expiration)
	if err != nil {
		return nil, fmt.Errorf("row %s: bad expiration: %w", dto.OptionRoot, err)
	}

	quoteDate, err := parseDate(dto.QuoteDate)
	if err != nil {
		return nil, fmt.Errorf("row %s: bad quotedate: %w", dto.OptionRoot, err)
	}

	optionType := strings.ToLower(dto.Type)
	if optionType != "" {
		optionType = optionType[:1]
	}

	return &data.QuoteRecord{
		Underlying:     dto.Underlying,
		UnderlyingLast: dto.UnderlyingLast,
		OptionRoot:     dto.OptionRoot,
		Type:           optionType,
		Expiration:     expiration,
		QuoteDate:      quoteDate,
		Strike:         dto.Strike,
		Last:           dto.Last,
		Bid:            dto.Bid,
		Ask:            dto.Ask,
		ImpliedVol:     dto.ImpliedVol,
		Delta:          dto.Delta,
		Gamma:          dto.Gamma,
		Theta:          dto.Theta,
		Vega:           dto.Vega,
	}, nil
}

var importCmd = &cobra.Command{
	Use:   "import_csv --csv quotes.csv",
	Short: "Convert a raw options quote CSV into the SQLite historical dataset",
	Run: func(cmd *cobra.Command, args []string) {
		csvPath, err := cmd.Flags().GetString("csv")
		if err != nil {
			log.Fatalf("error getting csv: %v", err)
		}

		outPath, err := cmd.Flags().GetString("out")
		if err != nil {
			log.Fatalf("error getting out: %v", err)
		}

		if outPath == "" {
			outPath = strings.TrimSuffix(csvPath, filepath.Ext(csvPath)) + ".sqlite3"
		}

		if err := run(csvPath, outPath); err != nil {
			log.Fatalf("Error: %v", err)
		}
	},
}

func run(csvPath string, outPath string) error {
	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", csvPath, err)
	}
	defer file.Close()

	var rows []*quoteRowDTO
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return fmt.Errorf("failed to parse %s: %w", csvPath, err)
	}

	store, err := data.Open(outPath, false)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.CreateSchema(); err != nil {
		return err
	}

	for _, dto := range rows {
		record, err := dto.toRecord()
		if err != nil {
			return err
		}

		if err := store.InsertQuote(record); err != nil {
			return err
		}
	}

	log.Infof("imported %d quote rows into %s", len(rows), outPath)

	return nil
}

func main() {
	importCmd.Flags().String("csv", "", "path to the raw quote CSV")
	importCmd.Flags().String("out", "", "path of the SQLite dataset to create (default: CSV path with .sqlite3 extension)")
	importCmd.MarkFlagRequired("csv")

	if err := importCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
