package marketdata

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoData means the provider answered but had nothing for the request.
	ErrNoData = errors.New("no market data")

	// ErrInvalidArgument is returned for unsupported periods, intervals or tickers.
	ErrInvalidArgument = errors.New("invalid market data argument")
)

// Close is the most recent closing price in a requested window.
type Close struct {
	Ticker   string    `json:"ticker"`
	Price    float64   `json:"price"`
	Currency string    `json:"currency"`
	Date     time.Time `json:"date"`
	Period   string    `json:"period"`
	Interval string    `json:"interval"`
}

// Valuation carries trailing twelve-month ratios. TrailingPE is nil when the
// provider does not report one; it is never estimated.
type Valuation struct {
	Ticker     string   `json:"ticker"`
	TrailingPE *float64 `json:"trailing_pe"`
}

type Provider interface {
	LatestClose(ctx context.Context, ticker, period, interval string) (*Close, error)
	Valuation(ctx context.Context, ticker string) (*Valuation, error)
}

const (
	DefaultPeriod   = "1mo"
	DefaultInterval = "1d"
)

var validPeriods = map[string]bool{
	"1d": true, "5d": true, "1mo": true, "3mo": true, "6mo": true,
	"1y": true, "2y": true, "5y": true, "10y": true, "ytd": true, "max": true,
}

var validIntervals = map[string]bool{
	"1m": true, "2m": true, "5m": true, "15m": true, "30m": true, "60m": true, "90m": true,
	"1h": true, "1d": true, "5d": true, "1wk": true, "1mo": true, "3mo": true,
}

func ValidPeriod(p string) bool   { return validPeriods[p] }
func ValidInterval(i string) bool { return validIntervals[i] }
