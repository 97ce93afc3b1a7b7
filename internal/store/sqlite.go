package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	engerr "github.com/ducminhle1904/baseline-reversion-bot/internal/errors"
	"github.com/ducminhle1904/baseline-reversion-bot/pkg/types"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Config holds storage settings. MaxConns bounds the connection pool
// independently of the grid worker count since the database fetch, not CPU,
// is the usual bottleneck.
type Config struct {
	Path         string
	MaxConns     int
	FetchTimeout time.Duration
}

// DefaultConfig returns the storage defaults used by the CLIs.
func DefaultConfig(path string) Config {
	return Config{
		Path:         path,
		MaxConns:     8,
		FetchTimeout: 30 * time.Second,
	}
}

// SQLiteStore is the storage collaborator backing the backtest engine: minute
// bars in, baselines/events/grid results out.
type SQLiteStore struct {
	db           *sql.DB
	fetchTimeout time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS minute_bars (
	symbol TEXT NOT NULL,
	ts     INTEGER NOT NULL,
	close  REAL NOT NULL,
	volume REAL NOT NULL,
	PRIMARY KEY (symbol, ts)
);

CREATE TABLE IF NOT EXISTS baselines (
	symbol       TEXT NOT NULL,
	method       TEXT NOT NULL,
	day          TEXT NOT NULL,
	baseline     REAL NOT NULL,
	sample_count INTEGER NOT NULL,
	created_at   INTEGER NOT NULL,
	PRIMARY KEY (symbol, method, day)
);

CREATE TABLE IF NOT EXISTS trade_events (
	symbol          TEXT NOT NULL,
	method          TEXT NOT NULL,
	buy_pct         REAL NOT NULL,
	sell_pct        REAL NOT NULL,
	ts              INTEGER NOT NULL,
	event_type      TEXT NOT NULL,
	asset_price     REAL NOT NULL,
	reference_price REAL NOT NULL,
	ratio           REAL NOT NULL,
	baseline        REAL NOT NULL,
	roi_pct         REAL,
	PRIMARY KEY (symbol, method, buy_pct, sell_pct, ts)
);

CREATE TABLE IF NOT EXISTS grid_results (
	symbol           TEXT NOT NULL,
	method           TEXT NOT NULL,
	buy_pct          REAL NOT NULL,
	sell_pct         REAL NOT NULL,
	start_date       TEXT NOT NULL,
	end_date         TEXT NOT NULL,
	total_return_pct REAL NOT NULL,
	num_trades       INTEGER NOT NULL,
	win_rate         REAL NOT NULL,
	avg_return_pct   REAL NOT NULL,
	min_return_pct   REAL NOT NULL,
	max_return_pct   REAL NOT NULL,
	created_at       INTEGER NOT NULL,
	PRIMARY KEY (symbol, method, buy_pct, sell_pct, start_date, end_date)
);
`

// Open opens (or creates) the SQLite database and ensures the schema exists.
func Open(cfg Config) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, engerr.WrapError(err, engerr.ErrorCategoryStorage, "store", "open")
	}
	db.SetMaxOpenConns(cfg.MaxConns)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, engerr.WrapError(err, engerr.ErrorCategoryStorage, "store", "migrate")
	}

	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SQLiteStore{db: db, fetchTimeout: timeout}, nil
}

// Close closes the underlying connection pool.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the data source is reachable before a grid run starts.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertBars writes minute bars for one symbol, replacing rows that share a
// timestamp so re-imports stay idempotent.
func (s *SQLiteStore) UpsertBars(ctx context.Context, symbol string, bars []Bar) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO minute_bars (symbol, ts, close, volume) VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol, ts) DO UPDATE SET close = excluded.close, volume = excluded.volume`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, symbol, b.Timestamp.UnixMilli(), b.Close, b.Volume); err != nil {
			return 0, fmt.Errorf("upsert bar %s@%s: %w", symbol, b.Timestamp, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(bars), nil
}

// Bar is one stored minute bar.
type Bar struct {
	Timestamp time.Time
	Close     float64
	Volume    float64
}

// FetchRatioSeries joins the asset's minute bars against the reference
// symbol's bars on timestamp and returns the ordered ratio samples for the
// range. An empty result is reported as ErrDataUnavailable.
func (s *SQLiteStore) FetchRatioSeries(ctx context.Context, symbol, referenceSymbol string, start, end time.Time) ([]types.RatioSample, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.ts, a.close, a.volume, r.close, r.volume
		FROM minute_bars a
		JOIN minute_bars r ON r.symbol = ? AND r.ts = a.ts
		WHERE a.symbol = ? AND a.ts >= ? AND a.ts < ?
		ORDER BY a.ts`,
		referenceSymbol, symbol, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, engerr.WrapError(err, engerr.ErrorCategoryFetch, "store", "fetch ratio series")
	}
	defer rows.Close()

	var samples []types.RatioSample
	for rows.Next() {
		var ts int64
		var sample types.RatioSample
		if err := rows.Scan(&ts, &sample.AssetPrice, &sample.AssetVolume, &sample.ReferencePrice, &sample.ReferenceVolume); err != nil {
			return nil, err
		}
		sample.Timestamp = time.UnixMilli(ts).UTC()
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, engerr.WrapError(err, engerr.ErrorCategoryFetch, "store", "fetch ratio series")
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%s vs %s in [%s, %s): %w",
			symbol, referenceSymbol, start.Format("2006-01-02"), end.Format("2006-01-02"), engerr.ErrDataUnavailable)
	}
	return samples, nil
}

// UpsertBaseline writes one baseline, overwriting any prior value for the
// same (symbol, method, day) key.
func (s *SQLiteStore) UpsertBaseline(ctx context.Context, b types.Baseline) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO baselines (symbol, method, day, baseline, sample_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, method, day) DO UPDATE SET
			baseline = excluded.baseline,
			sample_count = excluded.sample_count,
			created_at = excluded.created_at`,
		b.Symbol, b.Method.String(), b.Day.Format("2006-01-02"), b.Value, b.SampleCount, time.Now().UnixMilli())
	return err
}

// FetchBaseline returns the baseline for one (symbol, method, day) key, or
// ErrNotFound.
func (s *SQLiteStore) FetchBaseline(ctx context.Context, symbol string, method types.Method, day time.Time) (types.Baseline, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	b := types.Baseline{Symbol: symbol, Method: method, Day: day}
	err := s.db.QueryRowContext(ctx, `
		SELECT baseline, sample_count FROM baselines
		WHERE symbol = ? AND method = ? AND day = ?`,
		symbol, method.String(), day.Format("2006-01-02")).Scan(&b.Value, &b.SampleCount)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Baseline{}, fmt.Errorf("baseline %s/%s/%s: %w", symbol, method, day.Format("2006-01-02"), engerr.ErrNotFound)
	}
	if err != nil {
		return types.Baseline{}, engerr.WrapError(err, engerr.ErrorCategoryFetch, "store", "fetch baseline")
	}
	return b, nil
}

// FetchBaselinesForRange loads every baseline for the key over a date range,
// keyed by day, so a tuple run does one query instead of one per day.
func (s *SQLiteStore) FetchBaselinesForRange(ctx context.Context, symbol string, method types.Method, start, end time.Time) (map[time.Time]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT day, baseline FROM baselines
		WHERE symbol = ? AND method = ? AND day >= ? AND day <= ?`,
		symbol, method.String(), start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, engerr.WrapError(err, engerr.ErrorCategoryFetch, "store", "fetch baselines")
	}
	defer rows.Close()

	baselines := make(map[time.Time]float64)
	for rows.Next() {
		var day string
		var value float64
		if err := rows.Scan(&day, &value); err != nil {
			return nil, err
		}
		parsed, err := time.ParseInLocation("2006-01-02", day, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("malformed baseline day %q: %w", day, err)
		}
		baselines[parsed] = value
	}
	return baselines, rows.Err()
}

// FetchLastEventBefore returns the most recent stored event for the key
// before the given time, or ErrNotFound. Used to resume the signal state
// machine across runs.
func (s *SQLiteStore) FetchLastEventBefore(ctx context.Context, symbol string, method types.Method, params types.ThresholdParams, before time.Time) (*types.SignalEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	var ts int64
	var eventType string
	var roi sql.NullFloat64
	ev := &types.SignalEvent{}
	err := s.db.QueryRowContext(ctx, `
		SELECT ts, event_type, asset_price, reference_price, ratio, baseline, roi_pct
		FROM trade_events
		WHERE symbol = ? AND method = ? AND buy_pct = ? AND sell_pct = ? AND ts < ?
		ORDER BY ts DESC LIMIT 1`,
		symbol, method.String(), params.BuyPct, params.SellPct, before.UnixMilli()).
		Scan(&ts, &eventType, &ev.AssetPrice, &ev.ReferencePrice, &ev.Ratio, &ev.Baseline, &roi)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engerr.ErrNotFound
	}
	if err != nil {
		return nil, engerr.WrapError(err, engerr.ErrorCategoryFetch, "store", "fetch last event")
	}
	ev.Timestamp = time.UnixMilli(ts).UTC()
	ev.Type, err = types.ParseEventType(eventType)
	if err != nil {
		return nil, err
	}
	if roi.Valid {
		ev.ROIPct = &roi.Float64
	}
	return ev, nil
}

// PersistEvents upserts events by their natural key so retries stay
// idempotent. Returns the number of rows written.
func (s *SQLiteStore) PersistEvents(ctx context.Context, symbol string, method types.Method, params types.ThresholdParams, events []types.SignalEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trade_events
			(symbol, method, buy_pct, sell_pct, ts, event_type, asset_price, reference_price, ratio, baseline, roi_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, method, buy_pct, sell_pct, ts) DO UPDATE SET
			event_type = excluded.event_type,
			asset_price = excluded.asset_price,
			reference_price = excluded.reference_price,
			ratio = excluded.ratio,
			baseline = excluded.baseline,
			roi_pct = excluded.roi_pct`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, ev := range events {
		var roi sql.NullFloat64
		if ev.ROIPct != nil {
			roi = sql.NullFloat64{Float64: *ev.ROIPct, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			symbol, method.String(), params.BuyPct, params.SellPct,
			ev.Timestamp.UnixMilli(), string(ev.Type),
			ev.AssetPrice, ev.ReferencePrice, ev.Ratio, ev.Baseline, roi); err != nil {
			return 0, fmt.Errorf("persist event at %s: %w", ev.Timestamp, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(events), nil
}

// PersistGridResult upserts one grid tuple outcome keyed by its full address.
func (s *SQLiteStore) PersistGridResult(ctx context.Context, r types.GridResult, start, end time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO grid_results
			(symbol, method, buy_pct, sell_pct, start_date, end_date,
			 total_return_pct, num_trades, win_rate, avg_return_pct, min_return_pct, max_return_pct, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, method, buy_pct, sell_pct, start_date, end_date) DO UPDATE SET
			total_return_pct = excluded.total_return_pct,
			num_trades = excluded.num_trades,
			win_rate = excluded.win_rate,
			avg_return_pct = excluded.avg_return_pct,
			min_return_pct = excluded.min_return_pct,
			max_return_pct = excluded.max_return_pct,
			created_at = excluded.created_at`,
		r.Symbol, r.Method.String(), r.BuyPct, r.SellPct,
		start.Format("2006-01-02"), end.Format("2006-01-02"),
		r.TotalReturnPct, r.NumTrades, r.WinRate, r.AvgReturnPct, r.MinReturnPct, r.MaxReturnPct,
		time.Now().UnixMilli())
	return err
}

// Symbols lists the distinct asset symbols present in minute_bars, excluding
// the reference symbol.
func (s *SQLiteStore) Symbols(ctx context.Context, referenceSymbol string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT symbol FROM minute_bars WHERE symbol != ? ORDER BY symbol`, referenceSymbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}
