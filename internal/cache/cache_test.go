package cache

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestGeoKey(t *testing.T) {
	a := GeoKey("Tamale Northern Ghana")
	b := GeoKey("  Tamale Northern Ghana ")
	c := GeoKey("tamale northern ghana")

	if a != b {
		t.Errorf("Expected surrounding whitespace to be ignored, got %q and %q", a, b)
	}
	if a == c {
		t.Errorf("Expected case to be significant")
	}
	if len(a) != len("carescope:geo:v1:")+64 {
		t.Errorf("Unexpected key length %d", len(a))
	}
}

func testBackend(t *testing.T, name string, c Cache) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		if _, ok := c.Get("missing"); ok {
			t.Fatal("Expected miss for unknown key")
		}

		if err := c.Set("carescope:geo:v1:abc", []byte("one"), time.Hour); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := c.Set("carescope:geo:v1:abc", []byte("two"), time.Hour); err != nil {
			t.Fatalf("second Set failed: %v", err)
		}
		got, ok := c.Get("carescope:geo:v1:abc")
		if !ok || string(got) != "two" {
			t.Errorf("Expected 'two', got %q (found=%v)", got, ok)
		}

		if err := c.Delete("carescope:geo:v1:abc"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, ok := c.Get("carescope:geo:v1:abc"); ok {
			t.Error("Expected miss after delete")
		}
		if err := c.Delete("carescope:geo:v1:abc"); err != nil {
			t.Errorf("Expected deleting a missing key to succeed, got %v", err)
		}
	})
}

func TestBackends(t *testing.T) {
	dir := t.TempDir()

	sqlite, err := NewSQLiteCache(filepath.Join(dir, "sqlite", "cache.db"), time.Hour)
	if err != nil {
		t.Fatalf("NewSQLiteCache failed: %v", err)
	}
	defer sqlite.Close()

	testBackend(t, "memory", NewMemoryCache(time.Hour, time.Minute))
	testBackend(t, "disk", NewDiskCache(filepath.Join(dir, "disk"), time.Hour))
	testBackend(t, "sqlite", sqlite)
	testBackend(t, "layered", NewLayeredCache(NewMemoryCache(time.Hour, time.Minute), NewDiskCache(filepath.Join(dir, "layered"), time.Hour)))
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := c.Get("k"); !ok {
		t.Fatal("Expected hit before expiry")
	}

	now = now.Add(2 * time.Hour)
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss after expiry")
	}
}

func TestSQLiteCache_ExpiryAndPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := NewSQLiteCache(path, time.Hour)
	if err != nil {
		t.Fatalf("NewSQLiteCache failed: %v", err)
	}
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	c, err = NewSQLiteCache(path, time.Hour)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer c.Close()
	if got, ok := c.Get("k"); !ok || string(got) != "v" {
		t.Errorf("Expected persisted 'v', got %q (found=%v)", got, ok)
	}

	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss after expiry")
	}
}

func TestLayeredCache_PromotesStoreHits(t *testing.T) {
	memory := NewMemoryCache(time.Hour, time.Minute)
	store := NewDiskCache(t.TempDir(), time.Hour)
	c := NewLayeredCache(memory, store)

	if err := store.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if memory.Len() != 0 {
		t.Fatal("Expected empty memory layer")
	}

	if got, ok := c.Get("k"); !ok || string(got) != "v" {
		t.Fatalf("Expected 'v', got %q", got)
	}
	if _, ok := memory.Get("k"); !ok {
		t.Error("Expected store hit to be promoted to memory")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	for _, backend := range []string{"", "disk", "sqlite"} {
		c, err := Open(Options{Backend: backend, Dir: dir, TTL: time.Hour})
		if err != nil {
			t.Fatalf("Open(%q) failed: %v", backend, err)
		}
		if err := c.Close(); err != nil {
			t.Errorf("Close(%q) failed: %v", backend, err)
		}
	}

	_, err := Open(Options{Backend: "redis", Dir: dir})
	var unknown *UnknownBackendError
	if !errors.As(err, &unknown) {
		t.Fatalf("Expected UnknownBackendError, got %v", err)
	}
	if unknown.Backend != "redis" {
		t.Errorf("Expected backend 'redis', got %q", unknown.Backend)
	}
}
