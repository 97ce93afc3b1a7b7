package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	gosignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/baseline-reversion-bot/internal/baseline"
	engerr "github.com/ducminhle1904/baseline-reversion-bot/internal/errors"
	"github.com/ducminhle1904/baseline-reversion-bot/internal/monitoring"
	"github.com/ducminhle1904/baseline-reversion-bot/internal/store"
	"github.com/ducminhle1904/baseline-reversion-bot/pkg/types"
)

const (
	AppName    = "Baseline Calc"
	AppVersion = "1.0.0"
)

// trailingWindow is how far back each day's baseline looks.
const trailingWindow = 24 * time.Hour

func main() {
	dbPath := flag.String("db", "data/backtest.db", "SQLite database path")
	envFile := flag.String("env", ".env", "Environment file path")
	reference := flag.String("reference", "BTCUSDT", "Reference symbol for the ratio")
	symbolList := flag.String("symbols", "", "Comma-separated asset symbols (empty = every stored symbol)")
	methodList := flag.String("methods", "", "Comma-separated baseline methods (empty = all)")
	startDate := flag.String("start", "", "First day to compute YYYY-MM-DD (required)")
	endDate := flag.String("end", "", "Last day to compute, exclusive, YYYY-MM-DD (required)")
	minSamples := flag.Int("min-samples", baseline.MinSamples, "Minimum window size for a baseline")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}
	if *startDate == "" || *endDate == "" {
		log.Fatalf("❌ -start and -end are required")
	}

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️ Could not load %s: %v", *envFile, err)
	}
	if v := os.Getenv("BACKTEST_DB_PATH"); v != "" && *dbPath == "data/backtest.db" {
		*dbPath = v
	}

	start, err := time.ParseInLocation("2006-01-02", *startDate, time.UTC)
	if err != nil {
		log.Fatalf("❌ Invalid -start: %v", err)
	}
	end, err := time.ParseInLocation("2006-01-02", *endDate, time.UTC)
	if err != nil {
		log.Fatalf("❌ Invalid -end: %v", err)
	}
	if !end.After(start) {
		log.Fatalf("❌ -end must be after -start")
	}

	methods, err := parseMethods(*methodList)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	db, err := store.Open(store.DefaultConfig(*dbPath))
	if err != nil {
		log.Fatalf("❌ Failed to open database %s: %v", *dbPath, err)
	}
	defer db.Close()

	ctx, stop := gosignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	symbols := splitList(*symbolList)
	if len(symbols) == 0 {
		symbols, err = db.Symbols(ctx, *reference)
		if err != nil {
			log.Fatalf("❌ Failed to list symbols: %v", err)
		}
		if len(symbols) == 0 {
			log.Fatalf("❌ No symbols stored; run data-import first")
		}
	}

	fmt.Printf("🔄 %s: %d symbols × %d methods, %s → %s\n",
		AppName, len(symbols), len(methods), *startDate, *endDate)

	calc := baseline.NewCalculatorWithMinSamples(*minSamples)
	computed, skipped := 0, 0

	for day := start; day.Before(end); day = day.Add(24 * time.Hour) {
		if ctx.Err() != nil {
			log.Printf("⚠️ Cancelled at %s; %d baselines written", day.Format("2006-01-02"), computed)
			return
		}
		for _, symbol := range symbols {
			samples, err := db.FetchRatioSeries(ctx, symbol, *reference, day.Add(-trailingWindow), day)
			if errors.Is(err, engerr.ErrDataUnavailable) {
				skipped += len(methods)
				continue
			}
			if err != nil {
				log.Fatalf("❌ Failed to fetch window for %s@%s: %v", symbol, day.Format("2006-01-02"), err)
			}

			for _, method := range methods {
				b, err := calc.Compute(samples, symbol, method, day)
				if errors.Is(err, engerr.ErrNoBaseline) {
					skipped++
					continue
				}
				if err != nil {
					log.Fatalf("❌ Failed to compute %s/%s@%s: %v", symbol, method, day.Format("2006-01-02"), err)
				}
				if err := db.UpsertBaseline(ctx, b); err != nil {
					log.Fatalf("❌ Failed to store %s/%s@%s: %v", symbol, method, day.Format("2006-01-02"), err)
				}
				monitoring.RecordBaselineComputed(method.String())
				computed++
			}
		}
	}

	fmt.Printf("✅ Computed %d baselines, skipped %d thin or empty windows\n", computed, skipped)
}

func parseMethods(list string) ([]types.Method, error) {
	names := splitList(list)
	if len(names) == 0 {
		return types.AllMethods(), nil
	}
	methods := make([]types.Method, 0, len(names))
	for _, name := range names {
		m, err := types.ParseMethod(name)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, nil
}

func splitList(list string) []string {
	if list == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
