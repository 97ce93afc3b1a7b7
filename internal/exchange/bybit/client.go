package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
)

// Client wraps the Bybit API client for the market-data import path. Only
// public kline endpoints are used; no credentials are required.
type Client struct {
	httpClient *bybit_api.Client
}

// Config holds the Bybit client configuration.
type Config struct {
	APIKey    string
	APISecret string
	Testnet   bool
}

// NewClient creates a new Bybit client.
func NewClient(config Config) *Client {
	baseURL := bybit_api.MAINNET
	if config.Testnet {
		baseURL = bybit_api.TESTNET
	}

	httpClient := bybit_api.NewBybitHttpClient(
		config.APIKey,
		config.APISecret,
		bybit_api.WithBaseURL(baseURL),
	)

	return &Client{httpClient: httpClient}
}

// Kline is one candlestick returned by the market endpoint.
type Kline struct {
	StartTime time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// KlineParams describes a kline request window.
type KlineParams struct {
	Category string
	Symbol   string
	Interval string
	Start    *time.Time
	End      *time.Time
	Limit    int
}

// GetKlines fetches candlestick data for a symbol. Bybit caps one page at
// 1000 rows; callers page by advancing the start time.
func (c *Client) GetKlines(ctx context.Context, params KlineParams) ([]Kline, error) {
	if params.Category == "" {
		params.Category = "spot"
	}
	if params.Limit <= 0 || params.Limit > 1000 {
		params.Limit = 1000
	}

	reqParams := map[string]interface{}{
		"category": params.Category,
		"symbol":   params.Symbol,
		"interval": params.Interval,
		"limit":    params.Limit,
	}
	if params.Start != nil {
		reqParams["start"] = params.Start.UnixMilli()
	}
	if params.End != nil {
		reqParams["end"] = params.End.UnixMilli()
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(reqParams).GetMarketKline(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}

	klines, err := parseKlineResponse(result)
	if err != nil {
		return nil, fmt.Errorf("failed to parse kline response: %w", err)
	}
	return klines, nil
}

// parseKlineResponse converts the API response into Kline structs. Bybit
// returns rows newest-first; the result is reversed into ascending order.
func parseKlineResponse(response interface{}) ([]Kline, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return nil, fmt.Errorf("invalid response type")
	}
	if serverResp.RetCode != 0 {
		return nil, &APIError{Code: serverResp.RetCode, Message: serverResp.RetMsg}
	}

	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	var klineResult struct {
		Symbol   string     `json:"symbol"`
		Category string     `json:"category"`
		List     [][]string `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &klineResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kline result: %w", err)
	}

	klines := make([]Kline, 0, len(klineResult.List))
	for _, row := range klineResult.List {
		if len(row) < 6 {
			return nil, fmt.Errorf("kline row has %d fields, want at least 6", len(row))
		}
		k, err := parseKlineRow(row)
		if err != nil {
			return nil, err
		}
		klines = append(klines, k)
	}

	// Reverse newest-first into chronological order
	for i, j := 0, len(klines)-1; i < j; i, j = i+1, j-1 {
		klines[i], klines[j] = klines[j], klines[i]
	}
	return klines, nil
}

func parseKlineRow(row []string) (Kline, error) {
	startMs, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return Kline{}, fmt.Errorf("invalid kline start time %q: %w", row[0], err)
	}

	fields := make([]float64, 5)
	for i := 0; i < 5; i++ {
		fields[i], err = strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return Kline{}, fmt.Errorf("invalid kline field %q: %w", row[i+1], err)
		}
	}

	return Kline{
		StartTime: time.UnixMilli(startMs).UTC(),
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}, nil
}
