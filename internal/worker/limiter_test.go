package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	if l := NewLimiter(10, 5); l.defaultBurst != 5 {
		t.Errorf("Expected burst 5, got %d", l.defaultBurst)
	}
	if l := NewLimiter(10, -1); l.defaultBurst != 1 {
		t.Errorf("Expected default burst 1 for negative input, got %d", l.defaultBurst)
	}
}

func TestLimiter_DisabledWhenRateNotPositive(t *testing.T) {
	l := NewLimiter(0, 1)
	for i := 0; i < 20; i++ {
		if !l.Allow("https://nominatim.openstreetmap.org/search") {
			t.Fatalf("Expected unlimited limiter to allow call %d", i)
		}
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)
	ctx := context.Background()

	if err := l.Wait(ctx, "https://nominatim.openstreetmap.org/search?q=x"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := l.WaitHost(ctx, "api.openai.com"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_PerHost(t *testing.T) {
	l := NewLimiter(1, 1)
	ctx := context.Background()
	geo := "https://nominatim.openstreetmap.org/search"

	if err := l.Wait(ctx, geo); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}
	if l.Allow(geo) {
		t.Error("Expected second call to the same host to be limited")
	}
	if !l.Allow("http://localhost:11434/api/generate") {
		t.Error("Expected a different host to be allowed")
	}
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	l := NewLimiter(0.01, 1)
	geo := "https://nominatim.openstreetmap.org/search"
	if !l.Allow(geo) {
		t.Fatal("Expected first call to pass")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, geo); err == nil {
		t.Error("Expected wait to fail when the context ends first")
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	l := NewLimiter(10, 10)
	l.SetHostRate("slow.example", 0.1, 1)

	if !l.Allow("http://slow.example") {
		t.Error("first request should pass")
	}
	if l.Allow("http://slow.example") {
		t.Error("second request should fail")
	}
	if !l.Allow("http://fast.example") {
		t.Error("other host should pass")
	}
}

func TestHostOf(t *testing.T) {
	host, err := hostOf("http://example.com/foo")
	if err != nil {
		t.Fatalf("hostOf failed: %v", err)
	}
	if host != "example.com" {
		t.Errorf("Expected example.com, got %s", host)
	}
	if _, err := hostOf("::invalid"); err == nil {
		t.Error("Expected error for invalid URL")
	}
}
