package broker

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/options-backtrader/src/data"
	"github.com/jiaming2012/options-backtrader/src/models"
)

// ContractMultiplier converts a requested size in contracts to the exposure
// unit used by Account and Execution.
const ContractMultiplier = 100

const DefaultLiquidityRisk = 0.5

var _ models.MarketPricer = (*OptionsBroker)(nil)

// OptionsBroker replays a historical options dataset one trading day at a
// time, pricing simulated market orders off the bid/ask spread and feeding
// the resulting executions into an account.
type OptionsBroker struct {
	liquidityRisk float64
	commission    float64
	fidelity      string

	currentDate    time.Time
	running        bool
	simulationDays []time.Time
	dayIndex       int

	store         *data.QuoteStore
	dataStartDate time.Time
	dataEndDate   time.Time

	account *models.Account
	trader  Trader
}

// NewOptionsBroker creates a broker over the given account. Each broker
// requires its own account; they are never shared or defaulted.
func NewOptionsBroker(account *models.Account) *OptionsBroker {
	return &OptionsBroker{
		liquidityRisk: DefaultLiquidityRisk,
		account:       account,
	}
}

func (b *OptionsBroker) Account() *models.Account {
	return b.account
}

func (b *OptionsBroker) Fidelity() string {
	return b.fidelity
}

func (b *OptionsBroker) LiquidityRisk() float64 {
	return b.liquidityRisk
}

// SetLiquidityRisk configures how much of the bid/ask spread is charged as
// slippage. Values outside [0, 1] are rejected and the prior value kept.
func (b *OptionsBroker) SetLiquidityRisk(value float64) error {
	if value < 0 || value > 1 {
		return models.ErrInvalidLiquidityRisk
	}

	b.liquidityRisk = value
	return nil
}

func (b *OptionsBroker) Commission() float64 {
	return b.commission
}

func (b *OptionsBroker) SetCommission(value float64) error {
	if value < 0 {
		return models.ErrInvalidCommission
	}

	b.commission = value
	return nil
}

func (b *OptionsBroker) CurrentDate() time.Time {
	return b.currentDate
}

func (b *OptionsBroker) IsRunning() bool {
	return b.running
}

func (b *OptionsBroker) DataStartDate() time.Time {
	return b.dataStartDate
}

func (b *OptionsBroker) DataEndDate() time.Time {
	return b.dataEndDate
}

// LoadHistoricalData opens the SQLite dataset at dbPath and reads its date
// bounds. An empty fidelity keeps the previously configured one. With
// inMemory set the dataset is copied into memory before the run.
func (b *OptionsBroker) LoadHistoricalData(dbPath string, fidelity string, inMemory bool) error {
	if fidelity != "" {
		b.fidelity = fidelity
	}

	store, err := data.Open(dbPath, inMemory)
	if err != nil {
		return fmt.Errorf("failed to load historical data: %w", err)
	}

	startDate, endDate, err := store.Bounds()
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to read dataset bounds: %w", err)
	}

	b.store = store
	b.dataStartDate = startDate
	b.dataEndDate = endDate

	log.Infof("loaded historical data from %s: %s to %s", dbPath, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))

	return nil
}

func (b *OptionsBroker) SetTrader(trader Trader) {
	b.trader = trader
}

// GetTradingDays returns the distinct quote dates between startDate and
// endDate inclusive, ascending. Zero bounds default to the dataset's span.
func (b *OptionsBroker) GetTradingDays(startDate time.Time, endDate time.Time) ([]time.Time, error) {
	if startDate.IsZero() {
		startDate = b.dataStartDate
	}

	if endDate.IsZero() {
		endDate = b.dataEndDate
	}

	return b.store.TradingDays(startDate, endDate)
}

// Start arms the simulation clock over [startDate, endDate]. In step mode it
// returns immediately and the caller drives the clock with Step; otherwise
// it iterates every trading day, invoking the trader once per day, until the
// days are exhausted or Stop is called.
func (b *OptionsBroker) Start(startDate time.Time, endDate time.Time, stepMode bool) error {
	if startDate.IsZero() {
		startDate = b.dataStartDate
	}

	if endDate.IsZero() {
		endDate = b.dataEndDate
	}

	b.currentDate = startDate
	b.dayIndex = 0

	simulationDays, err := b.GetTradingDays(startDate, endDate)
	if err != nil {
		return fmt.Errorf("failed to fetch trading days: %w", err)
	}

	b.simulationDays = simulationDays
	b.running = true

	if stepMode {
		return nil
	}

	if b.trader == nil {
		b.running = false
		return fmt.Errorf("no trader set: call SetTrader before Start")
	}

	log.Infof("starting simulation: %d trading days", len(simulationDays))

	for _, tradingDate := range b.simulationDays {
		if !b.running {
			break
		}

		b.currentDate = tradingDate

		if err := b.trader.Step(tradingDate, b, b.account); err != nil {
			b.running = false
			return fmt.Errorf("trader step failed on %s: %w", tradingDate.Format("2006-01-02"), err)
		}
	}

	b.running = false

	return nil
}

// Step advances the clock one trading day and reports whether further days
// remain. It only has an effect after Start in step mode.
func (b *OptionsBroker) Step() bool {
	if !b.running {
		return false
	}

	if b.dayIndex >= len(b.simulationDays) {
		b.running = false
		return false
	}

	b.currentDate = b.simulationDays[b.dayIndex]
	b.dayIndex++

	if b.dayIndex >= len(b.simulationDays) {
		b.running = false
		return false
	}

	return true
}

// Stop halts further day iteration. It does not interrupt a quote query
// already in flight.
func (b *OptionsBroker) Stop() {
	b.running = false
}

// Shutdown releases the historical data connection. Queries after Shutdown
// fail with data.ErrStoreClosed.
func (b *OptionsBroker) Shutdown() error {
	return b.store.Close()
}

// Buy places a simulated market buy. Either symbol or quote must be given;
// with only a symbol the quote is fetched at the current date. Size is in
// contracts and is scaled by the contract multiplier.
func (b *OptionsBroker) Buy(symbol string, quote *models.Quote, size float64) (*models.Execution, error) {
	if quote == nil {
		var err error
		quote, err = b.GetOptionQuote(symbol, time.Time{})
		if err != nil {
			return nil, err
		}
	}

	orderPrice := b.GetMarketOrderPriceForQuote(quote, true)
	execution := models.NewExecution(quote.Symbol(), orderPrice, size*ContractMultiplier, quote.Option, models.OrderTypeBuy)

	b.account.UpdateFromExecution(execution)
	b.account.SetCash(b.account.Cash() - b.commission)

	return execution, nil
}

// Sell places a simulated market sell. The raw order price is negated before
// the execution is built; the execution constructor strips the sign so that
// order type alone carries direction.
func (b *OptionsBroker) Sell(symbol string, quote *models.Quote, size float64) (*models.Execution, error) {
	if quote == nil {
		var err error
		quote, err = b.GetOptionQuote(symbol, time.Time{})
		if err != nil {
			return nil, err
		}
	}

	orderPrice := -b.GetMarketOrderPriceForQuote(quote, false)
	execution := models.NewExecution(quote.Symbol(), orderPrice, size*ContractMultiplier, quote.Option, models.OrderTypeSell)

	b.account.UpdateFromExecution(execution)
	b.account.SetCash(b.account.Cash() - b.commission)

	return execution, nil
}

// Close flattens the given position: longs are sold, shorts are bought back.
// Closing a position the account no longer holds is a no-op.
func (b *OptionsBroker) Close(position *models.Position) (*models.Execution, error) {
	if b.account.GetPosition(position.Symbol) == nil {
		return nil, nil
	}

	if position.BookValue >= 0 {
		return b.Sell(position.Symbol, nil, position.Size/ContractMultiplier)
	}

	return b.Buy(position.Symbol, nil, position.Size/ContractMultiplier)
}

// GetOptionQuote returns the quote for symbol on quoteDate, defaulting to
// the broker's current date. A missing symbol yields an unresolved
// placeholder quote rather than an error.
func (b *OptionsBroker) GetOptionQuote(symbol string, quoteDate time.Time) (*models.Quote, error) {
	if quoteDate.IsZero() {
		quoteDate = b.currentDate
	}

	quote, err := b.store.QuoteAt(symbol, quoteDate)
	if err != nil {
		return nil, err
	}

	if !quote.Resolved() {
		log.Warnf("no quote for %s on %s: returning unresolved placeholder", symbol, quoteDate.Format("2006-01-02"))
	}

	return quote, nil
}

// GetOptionsChain returns all quotes for quoteDate with expiration in
// [expiryMin, expiryMax], ascending by expiration. Defaults: the current
// date, the quote date, and the dataset's end date respectively.
func (b *OptionsBroker) GetOptionsChain(quoteDate time.Time, expiryMin time.Time, expiryMax time.Time) ([]*models.Quote, error) {
	if quoteDate.IsZero() {
		quoteDate = b.currentDate
	}

	if expiryMin.IsZero() {
		expiryMin = quoteDate
	}

	if expiryMax.IsZero() {
		expiryMax = b.dataEndDate
	}

	return b.store.Chain(quoteDate, expiryMin, expiryMax)
}

// GetHistoryForOption returns all quotes for one symbol across a date range,
// ascending. The bounds are normalized so the earlier date is always the
// lower one. Defaults: the current date and the dataset's start date.
func (b *OptionsBroker) GetHistoryForOption(symbol string, fromDate time.Time, toDate time.Time) ([]*models.Quote, error) {
	if fromDate.IsZero() {
		fromDate = b.currentDate
	}

	if toDate.IsZero() {
		toDate = b.dataStartDate
	}

	startDate, endDate := fromDate, toDate
	if toDate.Before(fromDate) {
		startDate, endDate = toDate, fromDate
	}

	return b.store.History(symbol, startDate, endDate)
}

// FindOption returns the quote at expiry whose delta is nearest the target,
// or nil when either side of the delta bracket is empty.
func (b *OptionsBroker) FindOption(delta float64, expiry time.Time, quoteDate time.Time) (*models.Quote, error) {
	if quoteDate.IsZero() {
		quoteDate = b.currentDate
	}

	return b.store.NearestDelta(delta, expiry, quoteDate)
}

// GetMarketOrderPriceForQuote derives the simulated fill price: a linear
// interpolation between bid and ask controlled by the liquidity risk. At
// risk 0 a buy fills at bid and a sell at ask; at risk 1 the worst case,
// full spread cost.
func (b *OptionsBroker) GetMarketOrderPriceForQuote(quote *models.Quote, isBuy bool) float64 {
	if isBuy {
		return quote.Bid*(1.0-b.liquidityRisk) + quote.Ask*b.liquidityRisk
	}

	return quote.Bid*b.liquidityRisk + quote.Ask*(1.0-b.liquidityRisk)
}
