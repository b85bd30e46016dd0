package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/carescope/internal/cache"
	"github.com/ppiankov/carescope/internal/model"
)

func newTestClient(t *testing.T, url string, retries int) *Nominatim {
	t.Helper()
	n, err := NewNominatim(Options{BaseURL: url, UserAgent: "carescope-test", MaxRetries: retries})
	if err != nil {
		t.Fatalf("NewNominatim failed: %v", err)
	}
	n.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return n
}

func TestNominatim_Lookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("Expected /search, got %s", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua != "carescope-test" {
			t.Errorf("Expected user agent carescope-test, got %q", ua)
		}
		if q := r.URL.Query().Get("q"); q != "Tamale Northern Ghana" {
			t.Errorf("Unexpected query %q", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"9.4034","lon":"-0.8424","display_name":"Tamale, Northern Region, Ghana"}]`))
	}))
	defer server.Close()

	res, err := newTestClient(t, server.URL, 0).Lookup(context.Background(), "Tamale Northern Ghana")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !res.Found {
		t.Fatal("Expected a match")
	}
	if res.Coordinates != (model.Coordinates{Lat: 9.4034, Lng: -0.8424}) {
		t.Errorf("Unexpected coordinates %+v", res.Coordinates)
	}
}

func TestNominatim_NoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	res, err := newTestClient(t, server.URL, 0).Lookup(context.Background(), "Nowhere")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if res.Found {
		t.Error("Expected no match")
	}
}

func TestNominatim_RetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = w.Write([]byte(`[{"lat":"5.6","lon":"-0.2"}]`))
		}
	}))
	defer server.Close()

	n := newTestClient(t, server.URL, 3)
	var delays []time.Duration
	n.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	res, err := n.Lookup(context.Background(), "Accra")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !res.Found {
		t.Error("Expected a match after retries")
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	if len(delays) != 2 || delays[1] != 2*delays[0] {
		t.Errorf("Expected doubling backoff, got %v", delays)
	}
}

func TestNominatim_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL, 3).Lookup(context.Background(), "Accra")

	var status *StatusError
	if !errors.As(err, &status) || status.StatusCode != http.StatusForbidden {
		t.Fatalf("Expected 403 StatusError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestNominatim_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL, 2).Lookup(context.Background(), "Accra")
	if err == nil {
		t.Fatal("Expected error")
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestNewNominatim_Validation(t *testing.T) {
	if _, err := NewNominatim(Options{UserAgent: "x"}); err == nil {
		t.Error("Expected error without base url")
	}
	if _, err := NewNominatim(Options{BaseURL: "http://x"}); err == nil {
		t.Error("Expected error without user agent")
	}
}

type stubGeocoder struct {
	mu    sync.Mutex
	calls map[string]int
	res   Result
	err   error
	delay time.Duration
}

func (s *stubGeocoder) Lookup(ctx context.Context, address string) (Result, error) {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[address]++
	s.mu.Unlock()
	time.Sleep(s.delay)
	return s.res, s.err
}

func (s *stubGeocoder) count(address string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[address]
}

func TestCached_CachesHitsAndMisses(t *testing.T) {
	for _, found := range []bool{true, false} {
		stub := &stubGeocoder{res: Result{Found: found, Coordinates: model.Coordinates{Lat: 1, Lng: 2}}}
		c := NewCached(stub, cache.NewMemoryCache(time.Hour, time.Minute), 0, nil)

		for i := 0; i < 3; i++ {
			res, err := c.Lookup(context.Background(), "Bole Savannah Ghana")
			if err != nil {
				t.Fatalf("Lookup failed: %v", err)
			}
			if res.Found != found {
				t.Errorf("Expected Found=%v, got %v", found, res.Found)
			}
		}
		if n := stub.count("Bole Savannah Ghana"); n != 1 {
			t.Errorf("found=%v: expected 1 upstream call, got %d", found, n)
		}
	}
}

func TestCached_DoesNotCacheErrors(t *testing.T) {
	stub := &stubGeocoder{err: errors.New("connection refused")}
	c := NewCached(stub, cache.NewMemoryCache(time.Hour, time.Minute), 0, nil)

	for i := 0; i < 2; i++ {
		if _, err := c.Lookup(context.Background(), "Accra"); err == nil {
			t.Fatal("Expected error")
		}
	}
	if n := stub.count("Accra"); n != 2 {
		t.Errorf("Expected 2 upstream calls, got %d", n)
	}
}

func TestCached_DeduplicatesConcurrentLookups(t *testing.T) {
	stub := &stubGeocoder{res: Result{Found: true}, delay: 20 * time.Millisecond}
	c := NewCached(stub, cache.NewMemoryCache(time.Hour, time.Minute), 0, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Lookup(context.Background(), "Tamale")
		}()
	}
	wg.Wait()

	if n := stub.count("Tamale"); n != 1 {
		t.Errorf("Expected 1 upstream call, got %d", n)
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	coords, err := Resolve(ctx, &stubGeocoder{res: Result{Found: true, Coordinates: model.Coordinates{Lat: 9.4, Lng: -0.8}}}, "Tamale")
	if err != nil || coords == nil || coords.Lat != 9.4 {
		t.Fatalf("Expected coordinates, got %v, %v", coords, err)
	}

	tests := []struct {
		name    string
		g       Geocoder
		address string
	}{
		{"no match", &stubGeocoder{}, "Nowhere"},
		{"lookup error", &stubGeocoder{err: errors.New("timeout")}, "Accra"},
		{"empty address", &stubGeocoder{res: Result{Found: true}}, "  "},
		{"no geocoder", nil, "Accra"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coords, err := Resolve(ctx, tt.g, tt.address)
			if coords != nil {
				t.Errorf("Expected nil coordinates, got %+v", coords)
			}
			if !errors.Is(err, ErrUnresolved) {
				t.Errorf("Expected ErrUnresolved, got %v", err)
			}
			var ue *UnresolvedError
			if !errors.As(err, &ue) {
				t.Errorf("Expected *UnresolvedError, got %T", err)
			}
		})
	}
}
