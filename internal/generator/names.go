package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sync"

	"github.com/creature-forge/internal/config"
	"github.com/creature-forge/internal/domain"
)

// FallbackName is used when a listed entry carries no usable name
const FallbackName = "Unknown"

// NameEntry is one candidate creature identity from the naming service
type NameEntry struct {
	Name     string
	ImageURL string
}

// NameSource supplies the candidate name list for generation
type NameSource interface {
	Names(ctx context.Context) ([]NameEntry, error)
}

// namesResponse mirrors the naming service's list payload
type namesResponse struct {
	Results []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"results"`
}

var entryIDPattern = regexp.MustCompile(`/(\d+)/?$`)

// NamesClient fetches the public creature-name list once and caches it for
// the process lifetime
type NamesClient struct {
	cfg    *config.GeneratorConfig
	client *http.Client
	logger *slog.Logger

	mu    sync.Mutex
	cache []NameEntry
}

// NewNamesClient creates a name-list client with the configured timeout
func NewNamesClient(cfg *config.GeneratorConfig, logger *slog.Logger) *NamesClient {
	return &NamesClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Names returns the cached name list, fetching it on first use. A fetch
// failure surfaces as a GenerationError so the caller can refund the
// generation cost; once the cache is populated the remote service is never
// contacted again.
func (c *NamesClient) Names(ctx context.Context) ([]NameEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cache) > 0 {
		return c.cache, nil
	}

	entries, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.cache = entries
	c.logger.Info("creature name list cached", "count", len(entries))
	return c.cache, nil
}

func (c *NamesClient) fetch(ctx context.Context) ([]NameEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.NamesURL, nil)
	if err != nil {
		return nil, domain.NewGenerationError(domain.GenerationNetworkUnavailable, err.Error())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.NewGenerationError(domain.GenerationNetworkUnavailable, err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.NewGenerationError(domain.GenerationAuthFailed,
			fmt.Sprintf("naming service rejected request: %s", resp.Status))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, domain.NewGenerationError(domain.GenerationNetworkUnavailable,
			fmt.Sprintf("naming service returned %s", resp.Status))
	}

	var payload namesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, domain.NewGenerationError(domain.GenerationMalformedResponse, err.Error())
	}
	if len(payload.Results) == 0 {
		return nil, domain.NewGenerationError(domain.GenerationMalformedResponse, "empty name list")
	}

	entries := make([]NameEntry, 0, len(payload.Results))
	for _, r := range payload.Results {
		name := r.Name
		if name == "" {
			name = FallbackName
		}

		entryID := "0"
		if m := entryIDPattern.FindStringSubmatch(r.URL); m != nil {
			entryID = m[1]
		}

		entries = append(entries, NameEntry{
			Name:     capitalize(name),
			ImageURL: fmt.Sprintf(c.cfg.ImageURLFmt, entryID),
		})
	}
	return entries, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
