package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// OllamaModel is one entry of the local model catalogue.
type OllamaModel struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// OllamaStatus reports whether the local Ollama server is reachable.
type OllamaStatus struct {
	Running bool     `json:"running"`
	BaseURL string   `json:"baseUrl"`
	Models  []string `json:"models"`
	Error   string   `json:"error,omitempty"`
}

const statusTimeout = 5 * time.Second

// OllamaTags fetches the model catalogue from GET /api/tags.
func (c *Client) OllamaTags(ctx context.Context) ([]OllamaModel, error) {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	url := strings.TrimRight(c.cfg.Ollama.BaseURL, "/") + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrProviderUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Models []OllamaModel `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode tags: %w", ErrProviderUnavailable, err)
	}
	return payload.Models, nil
}

// OllamaModels returns the names of installed chat models. Embedding
// models are filtered out.
func (c *Client) OllamaModels(ctx context.Context) ([]string, error) {
	tags, err := c.OllamaTags(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(tags))
	for _, m := range tags {
		if strings.Contains(strings.ToLower(m.Name), "embed") {
			continue
		}
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names, nil
}

// OllamaStatus probes the local server. It never returns an error; an
// unreachable server is reported with Running false.
func (c *Client) OllamaStatus(ctx context.Context) OllamaStatus {
	status := OllamaStatus{BaseURL: c.cfg.Ollama.BaseURL, Models: []string{}}

	models, err := c.OllamaModels(ctx)
	if err != nil {
		status.Error = err.Error()
		return status
	}

	status.Running = true
	status.Models = models
	return status
}
