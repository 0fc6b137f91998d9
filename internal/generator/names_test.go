package generator

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/creature-forge/internal/config"
	"github.com/creature-forge/internal/domain"
)

func namesClientFor(t *testing.T, url string) *NamesClient {
	t.Helper()
	return NewNamesClient(&config.GeneratorConfig{
		NamesURL:    url,
		ImageURLFmt: "https://img.example.com/%s.png",
		Timeout:     2 * time.Second,
	}, slog.Default())
}

func TestNamesClient_FetchAndCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"results": [
			{"name": "bulbasaur", "url": "https://api.example.com/pokemon/1/"},
			{"name": "", "url": "https://api.example.com/pokemon/2/"}
		]}`))
	}))
	t.Cleanup(srv.Close)

	c := namesClientFor(t, srv.URL)
	entries, err := c.Names(context.Background())
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Name != "Bulbasaur" {
		t.Fatalf("name=%q, want capitalized Bulbasaur", entries[0].Name)
	}
	if entries[0].ImageURL != "https://img.example.com/1.png" {
		t.Fatalf("image url=%q", entries[0].ImageURL)
	}
	if entries[1].Name != FallbackName {
		t.Fatalf("blank name became %q, want %q", entries[1].Name, FallbackName)
	}

	// Second call must come from the cache
	if _, err := c.Names(context.Background()); err != nil {
		t.Fatalf("cached names: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("server hit %d times, want 1", got)
	}
}

func TestNamesClient_AuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	_, err := namesClientFor(t, srv.URL).Names(context.Background())
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) || genErr.Kind != domain.GenerationAuthFailed {
		t.Fatalf("got %v, want auth-failed GenerationError", err)
	}
}

func TestNamesClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := namesClientFor(t, srv.URL).Names(context.Background())
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) || genErr.Kind != domain.GenerationNetworkUnavailable {
		t.Fatalf("got %v, want network-unavailable GenerationError", err)
	}
}

func TestNamesClient_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": `))
	}))
	t.Cleanup(srv.Close)

	_, err := namesClientFor(t, srv.URL).Names(context.Background())
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) || genErr.Kind != domain.GenerationMalformedResponse {
		t.Fatalf("got %v, want malformed-response GenerationError", err)
	}
}

func TestNamesClient_EmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	t.Cleanup(srv.Close)

	_, err := namesClientFor(t, srv.URL).Names(context.Background())
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) || genErr.Kind != domain.GenerationMalformedResponse {
		t.Fatalf("got %v, want malformed-response GenerationError", err)
	}
}

func TestNamesClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := namesClientFor(t, url).Names(context.Background())
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) || genErr.Kind != domain.GenerationNetworkUnavailable {
		t.Fatalf("got %v, want network-unavailable GenerationError", err)
	}
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("GenerationError does not unwrap to ErrGenerationFailed")
	}
}
