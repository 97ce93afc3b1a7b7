package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/baseline-reversion-bot/internal/grid"
	"github.com/ducminhle1904/baseline-reversion-bot/internal/monitoring"
	"github.com/ducminhle1904/baseline-reversion-bot/internal/store"
	"github.com/ducminhle1904/baseline-reversion-bot/pkg/config"
	"github.com/ducminhle1904/baseline-reversion-bot/pkg/reporting"
)

const (
	AppName    = "Grid Backtest"
	AppVersion = "1.0.0"
)

func main() {
	configFile := flag.String("config", "", "Path to JSON grid search config")
	envFile := flag.String("env", ".env", "Environment file path")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	workers := flag.Int("workers", 0, "Worker pool size (overrides config)")
	topN := flag.Int("top", 20, "Number of ranked results to print")
	best := flag.Bool("best", false, "Also print the best tuple per method")
	outputDir := flag.String("output", "results", "Directory for report files")
	formats := flag.String("formats", "csv,json,xlsx", "Comma-separated report formats (csv,json,xlsx,none)")
	noPersist := flag.Bool("no-persist", false, "Skip writing tuple results to the database")
	metricsAddr := flag.String("metrics-addr", "", "Address for /metrics and /health endpoints (empty = disabled)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}

	loadEnvironment(*envFile)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	gridCfg, err := cfg.ToGridConfig()
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	printHeader(cfg, gridCfg)

	db, err := store.Open(store.DefaultConfig(cfg.DBPath))
	if err != nil {
		log.Fatalf("❌ Failed to open database %s: %v", cfg.DBPath, err)
	}
	defer db.Close()

	health := monitoring.NewHealthChecker()
	if *metricsAddr != "" {
		startMonitoringServer(*metricsAddr, health)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Ping(ctx); err != nil {
		health.SetStoreReady(false)
		log.Fatalf("❌ Database unreachable: %v", err)
	}
	health.SetStoreReady(true)

	var sink grid.ResultSink
	if !*noPersist {
		sink = db
	}

	orch := grid.NewOrchestrator(db, sink)
	report, err := orch.Run(ctx, gridCfg)
	if err != nil {
		health.RecordError(err.Error())
		log.Fatalf("❌ Grid search failed: %v", err)
	}
	health.RecordGridRun()

	console := reporting.NewDefaultConsoleReporter()
	console.OutputReport(report, *topN)
	if *best {
		console.OutputBestPerMethod(report)
	}

	writeReports(report, *outputDir, *formats)
}

func loadEnvironment(envFile string) {
	if err := godotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ Could not load %s: %v", envFile, err)
		}
	}
}

func printHeader(cfg *config.GridSearchConfig, gridCfg *grid.Config) {
	fmt.Printf("🔍 %s v%s\n", AppName, AppVersion)
	fmt.Printf("   Reference: %s | Symbols: %s\n", cfg.ReferenceSymbol, strings.Join(cfg.Symbols, ", "))
	fmt.Printf("   Methods:   %s\n", strings.Join(cfg.Methods, ", "))
	fmt.Printf("   Buy %%:     %.1f-%.1f step %.1f | Sell %%: %.1f-%.1f step %.1f\n",
		cfg.BuyRange.Min, cfg.BuyRange.Max, cfg.BuyRange.Step,
		cfg.SellRange.Min, cfg.SellRange.Max, cfg.SellRange.Step)
	fmt.Printf("   Window:    %s → %s | Combinations: %d (limit %d)\n",
		cfg.StartDate, cfg.EndDate, gridCfg.CombinationCount(), gridCfg.MaxCombinations)
	fmt.Printf("   Capital:   %.2f | Slippage: %.3f%% | Workers: %d\n\n",
		cfg.InitialCapital, cfg.SlippagePct, gridCfg.Workers)
}

func startMonitoringServer(addr string, health *monitoring.HealthChecker) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	mux.Handle("/health", health)
	go func() {
		log.Printf("📊 Monitoring endpoints on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			log.Printf("⚠️ Monitoring server error: %v", err)
		}
	}()
}

func writeReports(report *grid.Report, outputDir, formats string) {
	if formats == "" || formats == "none" {
		return
	}

	files := reporting.NewDefaultFileReporter()
	for _, format := range strings.Split(formats, ",") {
		format = strings.TrimSpace(strings.ToLower(format))
		var path string
		var err error
		switch format {
		case "csv":
			path = filepath.Join(outputDir, "grid_results.csv")
			err = files.WriteResultsCSV(report, path)
		case "json":
			path = filepath.Join(outputDir, "grid_results.json")
			err = files.WriteResultsJSON(report, path)
		case "xlsx":
			path = filepath.Join(outputDir, "grid_results.xlsx")
			err = files.WriteResultsXLSX(report, path)
		case "", "none":
			continue
		default:
			log.Printf("⚠️ Unknown report format %q, skipping", format)
			continue
		}
		if err != nil {
			log.Printf("⚠️ Failed to write %s report: %v", format, err)
			continue
		}
		fmt.Printf("💾 Wrote %s\n", path)
	}
}
