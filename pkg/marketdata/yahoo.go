package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// YahooClient reads quotes from the Yahoo Finance JSON endpoints.
type YahooClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

var _ Provider = &YahooClient{}

func NewYahooClient(baseURL string, timeout time.Duration, requestsPerSec float64) *YahooClient {
	if baseURL == "" {
		baseURL = "https://query2.finance.yahoo.com"
	}
	if requestsPerSec <= 0 {
		requestsPerSec = 2
	}
	return &YahooClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), 1),
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
				Symbol   string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail struct {
				TrailingPE *struct {
					Raw float64 `json:"raw"`
				} `json:"trailingPE"`
			} `json:"summaryDetail"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

func (c *YahooClient) LatestClose(ctx context.Context, ticker, period, interval string) (*Close, error) {
	if !ValidPeriod(period) {
		return nil, fmt.Errorf("%w: period %q", ErrInvalidArgument, period)
	}
	if !ValidInterval(interval) {
		return nil, fmt.Errorf("%w: interval %q", ErrInvalidArgument, interval)
	}

	q := url.Values{}
	q.Set("range", period)
	q.Set("interval", interval)
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), q.Encode())

	var resp chartResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoData, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, ErrNoData
	}

	result := resp.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i] == nil {
			continue
		}
		out := &Close{
			Ticker:   ticker,
			Price:    *closes[i],
			Currency: result.Meta.Currency,
			Period:   period,
			Interval: interval,
		}
		if i < len(result.Timestamp) {
			out.Date = time.Unix(result.Timestamp[i], 0).UTC()
		}
		return out, nil
	}
	return nil, ErrNoData
}

func (c *YahooClient) Valuation(ctx context.Context, ticker string) (*Valuation, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=summaryDetail", c.baseURL, url.PathEscape(ticker))

	var resp quoteSummaryResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoData, resp.QuoteSummary.Error.Description)
	}

	v := &Valuation{Ticker: ticker}
	if len(resp.QuoteSummary.Result) > 0 && resp.QuoteSummary.Result[0].SummaryDetail.TrailingPE != nil {
		pe := resp.QuoteSummary.Result[0].SummaryDetail.TrailingPE.Raw
		v.TrailingPE = &pe
	}
	return v, nil
}

func (c *YahooClient) getJSON(ctx context.Context, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; finance-assistant/1.0)")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("market data request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("market data error: status %d, body: %s", resp.StatusCode, truncate(string(body), 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
