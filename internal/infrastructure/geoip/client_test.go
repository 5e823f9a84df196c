package geoip

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
)

func quietLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToConsole: false,
		OutputToFile:    false,
		JSONFormat:      true,
		DefaultLevel:    slog.LevelError + 4,
		ChannelLevels:   make(map[logging.Channel]slog.Level),
	})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

func TestResolvePrimarySuccess(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ip":"203.0.113.7","country_name":"Germany","city":"Berlin"}`))
	}))
	defer primary.Close()

	client := NewClient(primary.URL, "http://127.0.0.1:1", time.Second, quietLogger(t))

	loc, err := client.Resolve(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if loc.IP != "203.0.113.7" || loc.Country != "Germany" || loc.City != "Berlin" {
		t.Errorf("unexpected location: %+v", loc)
	}
}

func TestResolveAcceptsAlternateCountryField(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ip":"203.0.113.7","country":"France"}`))
	}))
	defer primary.Close()

	client := NewClient(primary.URL, "http://127.0.0.1:1", time.Second, quietLogger(t))

	loc, err := client.Resolve(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if loc.Country != "France" {
		t.Errorf("expected country from alternate field, got %q", loc.Country)
	}
}

func TestResolveInterpolatesClientIP(t *testing.T) {
	var requestedPath string
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.Write([]byte(`{"ip":"198.51.100.9","country_name":"Sweden"}`))
	}))
	defer primary.Close()

	client := NewClient(primary.URL+"/%s/json", "http://127.0.0.1:1", time.Second, quietLogger(t))

	if _, err := client.Resolve(context.Background(), "198.51.100.9"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if requestedPath != "/198.51.100.9/json" {
		t.Errorf("client ip not interpolated into provider URL: %q", requestedPath)
	}
}

func TestResolveFallsBackToIPOnlyProvider(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ip":"203.0.113.7"}`))
	}))
	defer fallback.Close()

	client := NewClient(primary.URL, fallback.URL, time.Second, quietLogger(t))

	loc, err := client.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if loc.IP != "203.0.113.7" || loc.Country != "" {
		t.Errorf("fallback must yield address only: %+v", loc)
	}
}

func TestResolveErrorsWhenBothProvidersFail(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	client := NewClient(failing.URL, failing.URL, time.Second, quietLogger(t))

	if _, err := client.Resolve(context.Background(), "203.0.113.7"); err == nil {
		t.Fatal("expected error when both providers fail")
	}
}
