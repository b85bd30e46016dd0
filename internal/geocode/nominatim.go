package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/carescope/internal/model"
	"github.com/ppiankov/carescope/internal/util"
	"github.com/ppiankov/carescope/internal/worker"
)

const maxResponseBytes = 1 << 20

// StatusError is a non-2xx response from the geocoding service.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.StatusCode, e.Status)
}

// Temporary reports whether the request may succeed if retried.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Options configures a Nominatim client.
type Options struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	Proxy      string
	Limiter    *worker.Limiter
	Logger     *zap.Logger
}

// OptionsFromConfig maps application config onto client options.
func OptionsFromConfig(cfg model.GeocodeConfig, limiter *worker.Limiter, log *zap.Logger) Options {
	return Options{
		BaseURL:    cfg.BaseURL,
		UserAgent:  cfg.UserAgent,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		Proxy:      cfg.Proxy,
		Limiter:    limiter,
		Logger:     log,
	}
}

// Nominatim queries a Nominatim-compatible search endpoint.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	maxRetries int
	limiter    *worker.Limiter
	log        *zap.Logger

	// sleep waits between retries; tests replace it.
	sleep   func(ctx context.Context, d time.Duration) error
	backoff time.Duration
}

// NewNominatim creates a client.
func NewNominatim(opts Options) (*Nominatim, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("geocode base url is required")
	}
	if opts.UserAgent == "" {
		return nil, errors.New("geocode user agent is required")
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	client, err := util.NewHTTPClient(timeout, opts.Proxy)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = worker.NewLimiter(0, 1)
	}

	return &Nominatim{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		httpClient: client,
		maxRetries: opts.MaxRetries,
		limiter:    limiter,
		log:        log,
		sleep:      sleepContext,
		backoff:    500 * time.Millisecond,
	}, nil
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Lookup searches for address. Transient failures are retried with
// exponential backoff; an empty result is a successful not-found.
func (n *Nominatim) Lookup(ctx context.Context, address string) (Result, error) {
	endpoint := n.baseURL + "/search?" + url.Values{
		"q":      {address},
		"format": {"json"},
		"limit":  {"1"},
	}.Encode()

	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			delay := n.backoff << (attempt - 1)
			n.log.Debug("retrying geocode lookup",
				zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(lastErr))
			if err := n.sleep(ctx, delay); err != nil {
				return Result{}, err
			}
		}

		res, err := n.search(ctx, endpoint)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			return Result{}, err
		}
	}
	return Result{}, fmt.Errorf("after %d attempts: %w", n.maxRetries+1, lastErr)
}

func (n *Nominatim) search(ctx context.Context, endpoint string) (Result, error) {
	if err := n.limiter.Wait(ctx, endpoint); err != nil {
		return Result{}, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return Result{}, &transportError{err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, fmt.Errorf("read body: %w", err)
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}
	if len(places) == 0 {
		return Result{Found: false}, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return Result{}, fmt.Errorf("parse lat: %w", err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return Result{}, fmt.Errorf("parse lon: %w", err)
	}
	return Result{
		Found:       true,
		Coordinates: model.Coordinates{Lat: lat, Lng: lng},
		DisplayName: places[0].DisplayName,
	}, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Temporary()
	}
	var transport *transportError
	return errors.As(err, &transport)
}

// transportError is a failure to get any response at all.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return "fetch: " + e.err.Error() }

func (e *transportError) Unwrap() error { return e.err }

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
