package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/proximity-cli/internal/model"
	"github.com/sells-group/proximity-cli/internal/resilience"
)

// HTTPDirectory fetches active POIs from a JSON endpoint. Transient
// failures are retried with backoff; a failed fetch never reaches the
// evaluation path, which keeps using the prior active set.
type HTTPDirectory struct {
	url    string
	client *http.Client
	retry  resilience.RetryConfig
}

// Option configures the HTTPDirectory.
type Option func(*HTTPDirectory)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(d *HTTPDirectory) { d.client = hc }
}

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(d *HTTPDirectory) { d.retry = cfg }
}

// NewHTTP creates an HTTPDirectory for the given URL.
func NewHTTP(url string, timeout time.Duration, opts ...Option) *HTTPDirectory {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	d := &HTTPDirectory{
		url:    url,
		client: &http.Client{Timeout: timeout},
		retry:  resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *HTTPDirectory) ActivePOIs(ctx context.Context) ([]model.PointOfInterest, error) {
	retry := d.retry
	retry.OnRetry = func(attempt int, err error) {
		zap.L().Warn("directory: retrying fetch",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return resilience.DoVal(ctx, retry, d.fetch)
}

func (d *HTTPDirectory) fetch(ctx context.Context) ([]model.PointOfInterest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "directory: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "directory: fetch")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("directory: fetch returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var pois []model.PointOfInterest
	if err := json.NewDecoder(resp.Body).Decode(&pois); err != nil {
		return nil, eris.Wrap(err, "directory: decode response")
	}
	return pois, nil
}
