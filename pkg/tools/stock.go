package tools

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"ai-finance-assistant-be/pkg/marketdata"
)

const (
	StockDataName = "stock_data_api"

	stockUsage = "Usage: 'pe <TICKER>' or 'close <TICKER> [period=1mo] [interval=1d]' (e.g. close AAPL 6mo 1wk)."
)

var tickerRe = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-^=]{0,14}$`)

type stockData struct {
	provider marketdata.Provider
}

// NewStockData returns the stock_data_api tool.
func NewStockData(provider marketdata.Provider) Tool {
	return &stockData{provider: provider}
}

func (t *stockData) Name() string { return StockDataName }

func (t *stockData) Description() string {
	return "Market data. 'pe <TICKER>' returns the trailing P/E; " +
		"'close <TICKER> [period] [interval]' returns the latest close (defaults 1mo, 1d)."
}

func (t *stockData) Invoke(ctx context.Context, input string) Result {
	parts := Fields(input)
	if len(parts) == 0 {
		return Fail("Empty command. " + stockUsage)
	}

	switch strings.ToLower(parts[0]) {
	case "pe", "p/e":
		if len(parts) < 2 {
			return Fail(stockUsage)
		}
		return t.pe(ctx, parts[1])
	case "close":
		if len(parts) < 2 {
			return Fail(stockUsage)
		}
		period, interval := marketdata.DefaultPeriod, marketdata.DefaultInterval
		positional := 0
		for _, arg := range parts[2:] {
			key, value, hasKey := strings.Cut(strings.ToLower(arg), "=")
			switch {
			case hasKey && key == "period":
				period = value
			case hasKey && key == "interval":
				interval = value
			case !hasKey && positional == 0:
				period = key
				positional++
			case !hasKey && positional == 1:
				interval = key
				positional++
			}
		}
		return t.close(ctx, parts[1], period, interval)
	default:
		return Fail(fmt.Sprintf("Unknown command %q. %s", parts[0], stockUsage))
	}
}

func normalizeTicker(raw string) (string, bool) {
	ticker := strings.ToUpper(strings.TrimPrefix(raw, "$"))
	return ticker, tickerRe.MatchString(ticker)
}

func (t *stockData) pe(ctx context.Context, raw string) Result {
	ticker, ok := normalizeTicker(raw)
	if !ok {
		return Fail(fmt.Sprintf("Invalid ticker %q. %s", raw, stockUsage))
	}
	v, err := t.provider.Valuation(ctx, ticker)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			return OK(fmt.Sprintf("Trailing P/E unavailable for %s.", ticker))
		}
		return Fail(fmt.Sprintf("Error: could not fetch P/E for %s: %v", ticker, err))
	}
	if v.TrailingPE == nil {
		return OK(fmt.Sprintf("Trailing P/E unavailable for %s.", ticker))
	}
	return OK(fmt.Sprintf("Trailing P/E (TTM) %s = %.2f", ticker, *v.TrailingPE))
}

func (t *stockData) close(ctx context.Context, raw, period, interval string) Result {
	ticker, ok := normalizeTicker(raw)
	if !ok {
		return Fail(fmt.Sprintf("Invalid ticker %q. %s", raw, stockUsage))
	}
	if !marketdata.ValidPeriod(period) || !marketdata.ValidInterval(interval) {
		return Fail(fmt.Sprintf("Unsupported period/interval %q/%q. %s", period, interval, stockUsage))
	}

	c, err := t.provider.LatestClose(ctx, ticker, period, interval)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			return OK(fmt.Sprintf("No data for %s (period=%s, interval=%s).", ticker, period, interval))
		}
		return Fail(fmt.Sprintf("Error: could not fetch close for %s: %v", ticker, err))
	}

	text := fmt.Sprintf("Close %s (%s/%s) = %.2f", ticker, period, interval, c.Price)
	if c.Currency != "" {
		text += " " + c.Currency
	}
	if !c.Date.IsZero() {
		text += " on " + c.Date.Format("2006-01-02")
	}
	return OK(text)
}
