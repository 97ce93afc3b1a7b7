package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	gosignal "os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"

	"github.com/ducminhle1904/baseline-reversion-bot/internal/baseline"
	engerr "github.com/ducminhle1904/baseline-reversion-bot/internal/errors"
	"github.com/ducminhle1904/baseline-reversion-bot/internal/signal"
	"github.com/ducminhle1904/baseline-reversion-bot/internal/store"
	"github.com/ducminhle1904/baseline-reversion-bot/internal/wallet"
	"github.com/ducminhle1904/baseline-reversion-bot/pkg/data"
	"github.com/ducminhle1904/baseline-reversion-bot/pkg/types"
)

const (
	AppName    = "Signal Backtest"
	AppVersion = "1.0.0"
)

func main() {
	dbPath := flag.String("db", "data/backtest.db", "SQLite database path")
	csvPath := flag.String("csv", "", "Joined ratio CSV file; runs file-based without the database")
	envFile := flag.String("env", ".env", "Environment file path")
	symbol := flag.String("symbol", "", "Asset symbol (required)")
	reference := flag.String("reference", "BTCUSDT", "Reference symbol for the ratio")
	methodName := flag.String("method", "EQUAL_MEAN", "Baseline method")
	buyPct := flag.Float64("buy", 1.0, "Buy threshold percent above baseline")
	sellPct := flag.Float64("sell", 1.0, "Sell threshold percent below baseline")
	startDate := flag.String("start", "", "Window start date YYYY-MM-DD (required)")
	endDate := flag.String("end", "", "Window end date YYYY-MM-DD (required)")
	capital := flag.Float64("capital", 10000, "Initial capital for the wallet replay")
	slippage := flag.Float64("slippage", 0, "Slippage percent applied per execution")
	noRounding := flag.Bool("no-rounding", false, "Disable conservative cent rounding")
	persist := flag.Bool("persist", false, "Write generated events to the database")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}
	if *symbol == "" || *startDate == "" || *endDate == "" {
		log.Fatalf("❌ -symbol, -start and -end are required")
	}

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️ Could not load %s: %v", *envFile, err)
	}
	if v := os.Getenv("BACKTEST_DB_PATH"); v != "" && *dbPath == "data/backtest.db" {
		*dbPath = v
	}

	method, err := types.ParseMethod(*methodName)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	start, err := parseDate(*startDate)
	if err != nil {
		log.Fatalf("❌ Invalid -start: %v", err)
	}
	end, err := parseDate(*endDate)
	if err != nil {
		log.Fatalf("❌ Invalid -end: %v", err)
	}
	params := types.ThresholdParams{BuyPct: *buyPct, SellPct: *sellPct}

	ctx, stop := gosignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("🔄 %s: %s vs %s, %s, buy %.1f%% / sell %.1f%%, %s → %s\n",
		AppName, *symbol, *reference, method, params.BuyPct, params.SellPct, *startDate, *endDate)

	var (
		samples   []types.RatioSample
		baselines map[time.Time]float64
		initial   signal.InitialState
		db        *store.SQLiteStore
	)

	if *csvPath != "" {
		if *persist {
			log.Printf("⚠️ -persist needs the database, ignoring for a file-based run")
			*persist = false
		}
		samples, baselines, err = loadFromCSV(*csvPath, *symbol, method, start, end)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		initial = signal.ResumeFrom(nil)
	} else {
		db, err = store.Open(store.DefaultConfig(*dbPath))
		if err != nil {
			log.Fatalf("❌ Failed to open database %s: %v", *dbPath, err)
		}
		defer db.Close()

		samples, baselines, initial, err = loadFromStore(ctx, db, *symbol, *reference, method, params, start, end)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
	}

	generator := signal.NewGenerator(params)
	lookup := func(day time.Time) (float64, error) {
		value, ok := baselines[day]
		if !ok {
			return 0, engerr.ErrNoBaseline
		}
		return value, nil
	}
	events, err := generator.Generate(samples, lookup, initial)
	if err != nil {
		log.Fatalf("❌ Signal generation failed: %v", err)
	}

	if *persist {
		written, err := db.PersistEvents(ctx, *symbol, method, params, events)
		if err != nil {
			log.Fatalf("❌ Failed to persist events: %v", err)
		}
		fmt.Printf("💾 Persisted %d events\n", written)
	}

	printEvents(events)

	simulator := wallet.NewSimulator(wallet.Options{
		SlippagePct:          *slippage,
		ConservativeRounding: !*noRounding,
	})
	result := simulator.Run(signal.Normalize(events), *capital)
	printWalletResult(result, *capital)
}

// loadFromStore pulls the window, its stored baselines, and the continuation
// state from the database.
func loadFromStore(ctx context.Context, db *store.SQLiteStore, symbol, reference string,
	method types.Method, params types.ThresholdParams, start, end time.Time) ([]types.RatioSample, map[time.Time]float64, signal.InitialState, error) {

	samples, err := db.FetchRatioSeries(ctx, symbol, reference, start, end)
	if err != nil {
		if errors.Is(err, engerr.ErrDataUnavailable) {
			return nil, nil, signal.InitialState{}, fmt.Errorf("no overlapping bars for %s vs %s in the window", symbol, reference)
		}
		return nil, nil, signal.InitialState{}, fmt.Errorf("failed to fetch ratio series: %w", err)
	}

	baselines, err := db.FetchBaselinesForRange(ctx, symbol, method, start, end)
	if err != nil {
		return nil, nil, signal.InitialState{}, fmt.Errorf("failed to fetch baselines: %w", err)
	}
	if len(baselines) == 0 {
		return nil, nil, signal.InitialState{}, fmt.Errorf("no baselines stored for %s/%s in the window; run baseline-calc first", symbol, method)
	}

	last, err := db.FetchLastEventBefore(ctx, symbol, method, params, start)
	if err != nil && !errors.Is(err, engerr.ErrNotFound) {
		return nil, nil, signal.InitialState{}, fmt.Errorf("failed to fetch continuation state: %w", err)
	}
	initial := signal.ResumeFrom(last)
	if last != nil {
		fmt.Printf("   Continuing from %s at %s (state %s)\n",
			last.Type, last.Timestamp.Format(time.RFC3339), initial.State)
	}
	return samples, baselines, initial, nil
}

// loadFromCSV loads a joined ratio file and derives each day's baseline from
// the trailing window inside the file, standing in for the stored baselines
// of a database run. File-based runs always start flat.
func loadFromCSV(path, symbol string, method types.Method, start, end time.Time) ([]types.RatioSample, map[time.Time]float64, error) {
	provider := data.NewCachedProvider(data.NewCSVProvider())

	all, err := provider.LoadSeries(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if err := provider.ValidateSeries(all); err != nil {
		return nil, nil, fmt.Errorf("invalid series in %s: %w", path, err)
	}

	samples := filterWindow(all, start, end)
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("no samples inside the window in %s", path)
	}

	baselines := computeFileBaselines(all, symbol, method, start, end)
	if len(baselines) == 0 {
		return nil, nil, fmt.Errorf("no day in the window has a full trailing baseline window in %s", path)
	}
	return samples, baselines, nil
}

// filterWindow keeps the samples with timestamps in [start, end).
func filterWindow(all []types.RatioSample, start, end time.Time) []types.RatioSample {
	var window []types.RatioSample
	for _, s := range all {
		if !s.Timestamp.Before(start) && s.Timestamp.Before(end) {
			window = append(window, s)
		}
	}
	return window
}

// computeFileBaselines reduces the trailing 24h of file samples into one
// baseline per day of the window. Days with thin windows are skipped, same
// as the stored-baseline path.
func computeFileBaselines(all []types.RatioSample, symbol string, method types.Method, start, end time.Time) map[time.Time]float64 {
	calc := baseline.NewCalculator()
	baselines := make(map[time.Time]float64)
	for day := start.UTC().Truncate(24 * time.Hour); day.Before(end); day = day.Add(24 * time.Hour) {
		window := filterWindow(all, day.Add(-24*time.Hour), day)
		b, err := calc.Compute(window, symbol, method, day)
		if err != nil {
			continue
		}
		baselines[day] = b.Value
	}
	return baselines
}

func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, time.UTC)
}

func printEvents(events []types.SignalEvent) {
	if len(events) == 0 {
		fmt.Println("No signals emitted in the window")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("SIGNAL EVENTS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Time", "Type", "Asset Price", "Ratio", "Baseline", "ROI %"})

	for _, ev := range events {
		roi := "-"
		if ev.ROIPct != nil {
			roi = fmt.Sprintf("%.4f", *ev.ROIPct)
		}
		t.AppendRow(table.Row{
			ev.Timestamp.Format("2006-01-02 15:04"),
			ev.Type,
			fmt.Sprintf("%.6f", ev.AssetPrice),
			fmt.Sprintf("%.6f", ev.Ratio),
			fmt.Sprintf("%.6f", ev.Baseline),
			roi,
		})
	}
	t.Render()
}

func printWalletResult(result types.WalletResult, capital float64) {
	fmt.Printf("\n✅ Wallet replay on %.2f initial capital\n", capital)
	fmt.Printf("   Final equity: %.2f (%.2f%%)\n", result.FinalEquity, result.TotalReturnPct)
	fmt.Printf("   Trades: %d | Win rate: %.1f%%\n", result.TradeCount, result.WinRate)
	if result.TradeCount > 0 {
		fmt.Printf("   Per-trade return: avg %.4f%% min %.4f%% max %.4f%%\n",
			result.AvgReturnPct, result.MinReturnPct, result.MaxReturnPct)
	}
}
