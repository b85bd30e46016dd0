package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/carescope/internal/model"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	bindEnv()
	t.Cleanup(viper.Reset)
}

func TestLoadConfig_Defaults(t *testing.T) {
	resetViper(t)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	want := model.DefaultConfig()
	if cfg.Geocode.Timeout != want.Geocode.Timeout || cfg.Cache.TTL != want.Cache.TTL {
		t.Errorf("Durations not preserved: %v %v", cfg.Geocode.Timeout, cfg.Cache.TTL)
	}
	if cfg.Concurrency.Workers != want.Concurrency.Workers {
		t.Errorf("Expected %d workers, got %d", want.Concurrency.Workers, cfg.Concurrency.Workers)
	}
	if strings.HasPrefix(cfg.Cache.Dir, "~") {
		t.Errorf("Expected cache dir to be expanded, got %s", cfg.Cache.Dir)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	resetViper(t)
	t.Setenv("CARESCOPE_LLM_MODEL", "gemini-2.0-flash")
	t.Setenv("CARESCOPE_RUN_TIMEOUT", "90s")
	t.Setenv("CARESCOPE_OUTPUT_S3_BUCKET", "maps")
	t.Setenv("CARESCOPE_LLM_API_KEY", "secret")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.LLM.Model != "gemini-2.0-flash" {
		t.Errorf("Expected env model, got %s", cfg.LLM.Model)
	}
	if cfg.Run.Timeout != 90*time.Second {
		t.Errorf("Expected 90s timeout, got %v", cfg.Run.Timeout)
	}
	if cfg.Output.S3.Bucket != "maps" {
		t.Errorf("Expected bucket maps, got %q", cfg.Output.S3.Bucket)
	}
	if cfg.LLM.APIKey != "secret" {
		t.Errorf("Expected api key from env, got %q", cfg.LLM.APIKey)
	}
}

func TestLoadConfig_File(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "geocode:\n  enabled: true\n  max_retries: 5\ncache:\n  backend: sqlite\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig failed: %v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if !cfg.Geocode.Enabled || cfg.Geocode.MaxRetries != 5 || cfg.Cache.Backend != "sqlite" {
		t.Errorf("File values not applied: %+v %+v", cfg.Geocode, cfg.Cache)
	}
	if cfg.Geocode.BaseURL != model.DefaultConfig().Geocode.BaseURL {
		t.Errorf("Expected default base url to survive a partial file, got %s", cfg.Geocode.BaseURL)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".carescope", "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("Written config is not valid YAML: %v", err)
	}
	if cfg.Output.File != "analysis.json" {
		t.Errorf("Expected analysis.json, got %q", cfg.Output.File)
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("Expected error when config already exists")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in, want string
	}{
		{"~/.carescope/cache", filepath.Join(home, ".carescope/cache")},
		{"~", home},
		{"/tmp/cache", "/tmp/cache"},
		{"~other/cache", "~other/cache"},
	}
	for _, tt := range tests {
		if got := expandHome(tt.in); got != tt.want {
			t.Errorf("expandHome(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestApplyAPIKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")

	cfg := model.DefaultConfig()
	if err := applyAPIKeys(cfg); err != nil {
		t.Errorf("Disabled LLM must not require a key, got %v", err)
	}

	cfg.LLM.Enabled = true
	if err := applyAPIKeys(cfg); err == nil {
		t.Error("Expected error for openai without a key")
	}

	cfg.LLM.Provider = "gemini"
	if err := applyAPIKeys(cfg); err != nil || cfg.LLM.APIKey != "g-key" {
		t.Errorf("Expected GOOGLE_API_KEY fallback, got %q (%v)", cfg.LLM.APIKey, err)
	}

	cfg = model.DefaultConfig()
	cfg.LLM.Enabled = true
	cfg.LLM.Provider = "ollama"
	if err := applyAPIKeys(cfg); err != nil || cfg.LLM.BaseURL != "http://ollama:11434" {
		t.Errorf("Expected ollama base url from env, got %q (%v)", cfg.LLM.BaseURL, err)
	}
}

func TestAnalyzeCommand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "facilities.csv")
	csv := "name,specialties,capability,address_city,latitude,longitude\n" +
		`Northern Spine Clinic,"[""neurosurgery""]","[""general ward""]",Tamale,9.4,-0.85` + "\n"
	if err := os.WriteFile(csvPath, []byte(csv), 0600); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "out")
	metricsPath := filepath.Join(dir, "carescope.prom")

	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"analyze", csvPath,
		"--output-dir", outDir,
		"--markdown",
		"--metrics-file", metricsPath,
		"--workers", "2",
	})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetErr(nil) })

	if err := Execute(); err != nil {
		t.Fatalf("analyze failed: %v\n%s", err, stderr.String())
	}

	data, err := os.ReadFile(filepath.Join(outDir, "analysis.json"))
	if err != nil {
		t.Fatalf("Expected analysis.json: %v", err)
	}
	var coll model.Collection
	if err := json.Unmarshal(data, &coll); err != nil {
		t.Fatalf("Invalid collection JSON: %v", err)
	}
	if coll.Metadata.TotalFacilities != 1 || coll.Metadata.TotalDeserts != 10 {
		t.Errorf("Unexpected totals %+v", coll.Metadata)
	}

	if _, err := os.Stat(filepath.Join(outDir, "analysis.md")); err != nil {
		t.Errorf("Expected markdown digest: %v", err)
	}
	if _, err := os.Stat(metricsPath); err != nil {
		t.Errorf("Expected metrics file: %v", err)
	}
	if !strings.Contains(stderr.String(), "Analysis Complete") {
		t.Errorf("Expected summary banner on stderr, got:\n%s", stderr.String())
	}
}

func TestSharedLimiter(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Geocode.BaseURL = "https://geo.example/search"
	cfg.Geocode.RateLimit = 0.01
	cfg.LLM.Provider = "ollama"
	cfg.LLM.RateLimit = 0.01

	l := sharedLimiter(cfg)
	if !l.Allow("https://geo.example/search?q=Tamale") {
		t.Fatal("Expected the first geocode call to pass")
	}
	if l.Allow("https://geo.example/search?q=Accra") {
		t.Error("Expected the geocode host to be rate limited")
	}
	for range 5 {
		if !l.Allow("https://other.example/") {
			t.Fatal("Expected hosts without an override to be unlimited")
		}
	}
}

func TestSharedLimiter_ProviderAlias(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "google"
	cfg.LLM.RateLimit = 0.01

	l := sharedLimiter(cfg)
	if err := l.WaitHost(context.Background(), "gemini"); err != nil {
		t.Fatalf("Expected the first gemini call to pass, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := l.WaitHost(ctx, "gemini"); err == nil {
		t.Error("Expected the google alias to rate limit the gemini provider")
	}
}
