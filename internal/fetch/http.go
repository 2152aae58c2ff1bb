package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/abelbrown/animalbase/internal/entity"
	"golang.org/x/time/rate"
)

// errPermanent marks responses that retrying cannot fix.
var errPermanent = errors.New("not retryable")

// maxBodySize caps how much of a response body is read.
var maxBodySize int64 = 10 << 20

// HTTPSource fetches a JSON array of records over HTTP GET.
type HTTPSource struct {
	url      string
	client   *http.Client
	attempts int
	limiter  *rate.Limiter
}

// NewHTTPSource creates an HTTPSource. Attempts are spaced at least
// opts.RetryInterval apart.
func NewHTTPSource(url string, opts Options) *HTTPSource {
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	return &HTTPSource{
		url:      url,
		client:   &http.Client{Timeout: opts.Timeout},
		attempts: opts.Attempts,
		limiter:  rate.NewLimiter(rate.Every(opts.RetryInterval), 1),
	}
}

// Name returns the URL.
func (s *HTTPSource) Name() string {
	return s.url
}

// Fetch retrieves and decodes the records. Transport errors, 429 and 5xx
// responses are retried; other non-200 responses fail immediately.
func (s *HTTPSource) Fetch(ctx context.Context) ([]entity.Record, error) {
	var lastErr error
	for attempt := 0; attempt < s.attempts; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		body, err := s.get(ctx)
		if err == nil {
			return decodeRecords(body)
		}
		if errors.Is(err, errPermanent) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d attempts: %w", s.attempts, lastErr)
}

func (s *HTTPSource) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w: %w", errPermanent, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "AnimalBase/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP error: %s", resp.Status)
		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			return nil, fmt.Errorf("%w: %w", errPermanent, err)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > maxBodySize {
		return nil, fmt.Errorf("%w: response body exceeds %d bytes", errPermanent, maxBodySize)
	}
	return body, nil
}
