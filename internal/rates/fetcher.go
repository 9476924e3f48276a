package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Fetcher retrieves a fresh rate document keyed by the pivot currency.
type Fetcher interface {
	Fetch(ctx context.Context) (map[string]decimal.Decimal, error)
}

// HTTPFetcher fetches a JSON rate document over HTTP. The document is an
// external contract: a map of currency code to numeric factor, possibly
// partially populated. Missing currencies are tolerated here and handled
// at conversion time.
type HTTPFetcher struct {
	url    string
	client *http.Client
}

// rateDocument matches the open exchange-rate API response shape.
type rateDocument struct {
	Rates map[string]decimal.Decimal `json:"rates"`
}

// NewHTTPFetcher creates a fetcher for the given document URL.
func NewHTTPFetcher(url string) *HTTPFetcher {
	return &HTTPFetcher{
		url: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build rate request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}

	var doc rateDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode rate document: %w", err)
	}
	if len(doc.Rates) == 0 {
		return nil, fmt.Errorf("decode rate document: empty rates map")
	}

	return doc.Rates, nil
}
