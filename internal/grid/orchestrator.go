package grid

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	engerr "github.com/ducminhle1904/baseline-reversion-bot/internal/errors"
	"github.com/ducminhle1904/baseline-reversion-bot/internal/monitoring"
	"github.com/ducminhle1904/baseline-reversion-bot/internal/signal"
	"github.com/ducminhle1904/baseline-reversion-bot/internal/wallet"
	"github.com/ducminhle1904/baseline-reversion-bot/pkg/types"
)

// DataSource is what the orchestrator needs from storage. Implementations
// must be safe for concurrent use by the worker pool.
type DataSource interface {
	FetchRatioSeries(ctx context.Context, symbol, referenceSymbol string, start, end time.Time) ([]types.RatioSample, error)
	FetchBaselinesForRange(ctx context.Context, symbol string, method types.Method, start, end time.Time) (map[time.Time]float64, error)
	FetchLastEventBefore(ctx context.Context, symbol string, method types.Method, params types.ThresholdParams, before time.Time) (*types.SignalEvent, error)
}

// Pinger is implemented by data sources that can be health-checked before
// dispatch starts. An unreachable source fails the whole run up front.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ResultSink receives completed tuple results. Optional.
type ResultSink interface {
	PersistGridResult(ctx context.Context, r types.GridResult, start, end time.Time) error
}

// TupleFailure records one failed parameter tuple; failures are isolated and
// excluded from ranking.
type TupleFailure struct {
	Key    TupleKey
	Reason string
}

// Report separates successful results from failed tuples.
type Report struct {
	Results   []types.GridResult
	Failures  []TupleFailure
	CacheHits int
	Duration  time.Duration
}

// Orchestrator explores the symbols × methods × buy% × sell% space with a
// bounded worker pool, caching identical tuple addresses.
type Orchestrator struct {
	source DataSource
	sink   ResultSink
	cache  *resultCache
	retry  RetryConfig
}

// NewOrchestrator creates an orchestrator over the given data source. sink
// may be nil when results should not be persisted.
func NewOrchestrator(source DataSource, sink ResultSink) *Orchestrator {
	return &Orchestrator{
		source: source,
		sink:   sink,
		cache:  newResultCache(),
		retry:  DefaultRetryConfig(),
	}
}

// SetRetryConfig overrides the fetch retry policy.
func (o *Orchestrator) SetRetryConfig(cfg RetryConfig) {
	o.retry = cfg
}

type tupleOutcome struct {
	key     TupleKey
	result  types.GridResult
	fromHit bool
	err     error
}

// Run validates the request, dispatches every tuple to the worker pool, and
// returns the ranked report. Cancelling ctx stops dispatching new tuples;
// in-flight tuples finish and their results are included.
func (o *Orchestrator) Run(ctx context.Context, cfg *Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if pinger, ok := o.source.(Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			return nil, engerr.WrapError(err, engerr.ErrorCategoryStorage, "grid", "ping data source")
		}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	keys := cfg.tuples()
	jobs := make(chan TupleKey)
	outcomes := make(chan tupleOutcome, len(keys))

	started := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range jobs {
				outcomes <- o.processTuple(ctx, cfg, key)
			}
		}()
	}

	dispatched := 0
dispatch:
	for _, key := range keys {
		select {
		case jobs <- key:
			dispatched++
		case <-ctx.Done():
			log.Printf("⚠️ grid search cancelled after %d/%d tuples dispatched", dispatched, len(keys))
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	report := &Report{}
	for outcome := range outcomes {
		if outcome.err != nil {
			report.Failures = append(report.Failures, TupleFailure{Key: outcome.key, Reason: outcome.err.Error()})
			monitoring.RecordTupleFailure(failureReason(outcome.err))
			continue
		}
		if outcome.fromHit {
			report.CacheHits++
		}
		report.Results = append(report.Results, outcome.result)
		monitoring.RecordTupleCompleted(outcome.key.Symbol, outcome.key.Method.String())
	}

	Rank(report.Results)
	report.Duration = time.Since(started)
	monitoring.ObserveGridDuration(report.Duration)
	return report, nil
}

// processTuple runs one tuple's pipeline: fetch series → baselines →
// continuation state → signal generation → wallet replay.
func (o *Orchestrator) processTuple(ctx context.Context, cfg *Config, key TupleKey) tupleOutcome {
	address := cacheAddress(key, cfg)
	if cached, ok := o.cache.Get(address); ok {
		return tupleOutcome{key: key, result: cached, fromHit: true}
	}

	result, err := o.computeTuple(ctx, cfg, key)
	if err != nil {
		return tupleOutcome{key: key, err: err}
	}

	o.cache.Set(address, result)
	if o.sink != nil {
		if err := o.sink.PersistGridResult(ctx, result, cfg.StartDate, cfg.EndDate); err != nil {
			log.Printf("⚠️ failed to persist result for %s: %v", key, err)
		}
	}
	return tupleOutcome{key: key, result: result}
}

func (o *Orchestrator) computeTuple(ctx context.Context, cfg *Config, key TupleKey) (types.GridResult, error) {
	zero := types.GridResult{
		Symbol:     key.Symbol,
		Method:     key.Method,
		MethodName: key.Method.String(),
		BuyPct:     key.Params.BuyPct,
		SellPct:    key.Params.SellPct,
	}

	var samples []types.RatioSample
	err := retryFetch(ctx, o.retry, func() error {
		var ferr error
		samples, ferr = o.source.FetchRatioSeries(ctx, key.Symbol, cfg.ReferenceSymbol, cfg.StartDate, cfg.EndDate)
		return ferr
	})
	if errors.Is(err, engerr.ErrDataUnavailable) {
		// Empty range is a zero-trade result, not a failure.
		return zero, nil
	}
	if err != nil {
		return zero, fmt.Errorf("fetch ratio series: %w", err)
	}

	var baselines map[time.Time]float64
	err = retryFetch(ctx, o.retry, func() error {
		var ferr error
		baselines, ferr = o.source.FetchBaselinesForRange(ctx, key.Symbol, key.Method, cfg.StartDate, cfg.EndDate)
		return ferr
	})
	if err != nil {
		return zero, fmt.Errorf("fetch baselines: %w", err)
	}

	last, err := o.source.FetchLastEventBefore(ctx, key.Symbol, key.Method, key.Params, cfg.StartDate)
	if err != nil && !errors.Is(err, engerr.ErrNotFound) {
		return zero, fmt.Errorf("fetch continuation state: %w", err)
	}

	generator := signal.NewGenerator(key.Params)
	lookup := func(day time.Time) (float64, error) {
		value, ok := baselines[day]
		if !ok {
			return 0, engerr.ErrNoBaseline
		}
		return value, nil
	}
	events, err := generator.Generate(samples, lookup, signal.ResumeFrom(last))
	if err != nil {
		return zero, err
	}

	simulator := wallet.NewSimulator(wallet.Options{
		SlippagePct:          cfg.SlippagePct,
		ConservativeRounding: cfg.ConservativeRounding,
	})
	wr := simulator.Run(signal.Normalize(events), cfg.InitialCapital)

	zero.TotalReturnPct = wr.TotalReturnPct
	zero.NumTrades = wr.TradeCount
	zero.WinRate = wr.WinRate
	zero.AvgReturnPct = wr.AvgReturnPct
	zero.MinReturnPct = wr.MinReturnPct
	zero.MaxReturnPct = wr.MaxReturnPct
	return zero, nil
}

func failureReason(err error) string {
	switch {
	case engerr.IsContractViolation(err):
		return "contract_violation"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "fetch"
	}
}
