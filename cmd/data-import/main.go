package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	gosignal "os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/baseline-reversion-bot/internal/exchange/bybit"
	"github.com/ducminhle1904/baseline-reversion-bot/internal/store"
)

const (
	AppName    = "Data Import"
	AppVersion = "1.0.0"
)

const (
	pageLimit      = 1000
	rateLimitPause = 200 * time.Millisecond
	maxPageRetries = 5
)

func main() {
	dbPath := flag.String("db", "data/backtest.db", "SQLite database path")
	envFile := flag.String("env", ".env", "Environment file path")
	symbolList := flag.String("symbols", "", "Comma-separated symbols to import, reference included (required)")
	category := flag.String("category", "spot", "Bybit market category")
	interval := flag.String("interval", "1", "Kline interval in minutes")
	startDate := flag.String("start", "", "First day to import YYYY-MM-DD (required)")
	endDate := flag.String("end", "", "Last day to import, exclusive, YYYY-MM-DD (required)")
	testnet := flag.Bool("testnet", false, "Use the Bybit testnet")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}
	if *symbolList == "" || *startDate == "" || *endDate == "" {
		log.Fatalf("❌ -symbols, -start and -end are required")
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
	intervalMinutes, err := strconv.Atoi(*interval)
	if err != nil || intervalMinutes <= 0 {
		log.Fatalf("❌ Invalid -interval %q: must be a positive number of minutes", *interval)
	}

	db, err := store.Open(store.DefaultConfig(*dbPath))
	if err != nil {
		log.Fatalf("❌ Failed to open database %s: %v", *dbPath, err)
	}
	defer db.Close()

	client := bybit.NewClient(bybit.Config{
		APIKey:    os.Getenv("BYBIT_API_KEY"),
		APISecret: os.Getenv("BYBIT_API_SECRET"),
		Testnet:   *testnet,
	})

	ctx, stop := gosignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	symbols := splitList(*symbolList)
	fmt.Printf("🔄 %s: %d symbols, %s klines, %s → %s\n",
		AppName, len(symbols), *interval, *startDate, *endDate)

	total := 0
	for _, symbol := range symbols {
		imported, err := importSymbol(ctx, client, db, symbol, *category, *interval, intervalMinutes, start, end)
		if err != nil {
			log.Fatalf("❌ Import failed for %s: %v", symbol, err)
		}
		fmt.Printf("✅ %s: %d bars\n", symbol, imported)
		total += imported
	}
	fmt.Printf("✅ Imported %d bars total\n", total)
}

// importSymbol pages through the kline endpoint, advancing the window start
// past the last bar of each page until the range is covered.
func importSymbol(ctx context.Context, client *bybit.Client, db *store.SQLiteStore,
	symbol, category, interval string, intervalMinutes int, start, end time.Time) (int, error) {

	step := time.Duration(intervalMinutes) * time.Minute
	cursor := start
	total := 0

	for cursor.Before(end) {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		klines, err := fetchPage(ctx, client, bybit.KlineParams{
			Category: category,
			Symbol:   symbol,
			Interval: interval,
			Start:    &cursor,
			End:      &end,
			Limit:    pageLimit,
		})
		if err != nil {
			return total, err
		}
		if len(klines) == 0 {
			break
		}

		bars := make([]store.Bar, 0, len(klines))
		for _, k := range klines {
			if !k.StartTime.Before(end) {
				continue
			}
			bars = append(bars, store.Bar{Timestamp: k.StartTime, Close: k.Close, Volume: k.Volume})
		}
		written, err := db.UpsertBars(ctx, symbol, bars)
		if err != nil {
			return total, err
		}
		total += written

		cursor = klines[len(klines)-1].StartTime.Add(step)
		time.Sleep(rateLimitPause)
	}
	return total, nil
}

// fetchPage retries transient API errors with a linear backoff.
func fetchPage(ctx context.Context, client *bybit.Client, params bybit.KlineParams) ([]bybit.Kline, error) {
	var lastErr error
	for attempt := 1; attempt <= maxPageRetries; attempt++ {
		klines, err := client.GetKlines(ctx, params)
		if err == nil {
			return klines, nil
		}
		lastErr = err
		if !bybit.IsRetryableError(err) {
			return nil, err
		}
		log.Printf("⚠️ Kline fetch attempt %d/%d failed for %s: %v", attempt, maxPageRetries, params.Symbol, err)
		select {
		case <-time.After(time.Duration(attempt) * time.Second):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("kline fetch exhausted retries: %w", lastErr)
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
