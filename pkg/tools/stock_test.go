package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-finance-assistant-be/pkg/marketdata"

	"github.com/stretchr/testify/assert"
)

type fakeMarket struct {
	pe        map[string]float64
	closes    map[string]float64
	err       error
	gotPeriod string
	gotIntv   string
}

func (f *fakeMarket) LatestClose(_ context.Context, ticker, period, interval string) (*marketdata.Close, error) {
	f.gotPeriod, f.gotIntv = period, interval
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.closes[ticker]
	if !ok {
		return nil, marketdata.ErrNoData
	}
	return &marketdata.Close{Ticker: ticker, Price: p, Currency: "USD", Date: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)}, nil
}

func (f *fakeMarket) Valuation(_ context.Context, ticker string) (*marketdata.Valuation, error) {
	if f.err != nil {
		return nil, f.err
	}
	v := &marketdata.Valuation{Ticker: ticker}
	if pe, ok := f.pe[ticker]; ok {
		v.TrailingPE = &pe
	}
	return v, nil
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		pe:     map[string]float64{"NVDA": 65.432},
		closes: map[string]float64{"AAPL": 183.38},
	}
}

func TestStockData_PE(t *testing.T) {
	tool := NewStockData(newFakeMarket())

	res := tool.Invoke(context.Background(), `"pe nvda".`)
	assert.False(t, res.Failed)
	assert.Equal(t, "Trailing P/E (TTM) NVDA = 65.43", res.Text)

	res = tool.Invoke(context.Background(), "pe BTC-USD")
	assert.False(t, res.Failed)
	assert.Equal(t, "Trailing P/E unavailable for BTC-USD.", res.Text)
}

func TestStockData_CloseDefaultsAndOverrides(t *testing.T) {
	m := newFakeMarket()
	tool := NewStockData(m)

	res := tool.Invoke(context.Background(), "close AAPL")
	assert.False(t, res.Failed)
	assert.Equal(t, "Close AAPL (1mo/1d) = 183.38 USD on 2024-05-03", res.Text)
	assert.Equal(t, "1mo", m.gotPeriod)
	assert.Equal(t, "1d", m.gotIntv)

	tool.Invoke(context.Background(), "close AAPL, 6mo, 1wk")
	assert.Equal(t, "6mo", m.gotPeriod)
	assert.Equal(t, "1wk", m.gotIntv)

	tool.Invoke(context.Background(), "close aapl interval=1h period=5d")
	assert.Equal(t, "5d", m.gotPeriod)
	assert.Equal(t, "1h", m.gotIntv)
}

func TestStockData_UsageAndErrors(t *testing.T) {
	tool := NewStockData(newFakeMarket())

	for _, in := range []string{"", "pe", "close", "dividend AAPL"} {
		res := tool.Invoke(context.Background(), in)
		assert.True(t, res.Failed, in)
		assert.Contains(t, res.Text, "Usage", in)
	}

	res := tool.Invoke(context.Background(), "close AAPL 7weeks")
	assert.True(t, res.Failed)
	assert.Contains(t, res.Text, "Unsupported period")

	res = tool.Invoke(context.Background(), "close ZZZZ")
	assert.False(t, res.Failed)
	assert.Contains(t, res.Text, "No data for ZZZZ")

	broken := &fakeMarket{err: errors.New("status 429")}
	res = NewStockData(broken).Invoke(context.Background(), "pe AAPL")
	assert.True(t, res.Failed)
	assert.Contains(t, res.Text, "status 429")
}
