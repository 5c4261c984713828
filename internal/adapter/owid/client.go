// Package owid fetches CSV and metadata resources from the data host serving
// the Our World in Data exports.
package owid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vidanagua/marine-indicators-service/internal/domain"
)

// Client fetches dataset resources over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a data-host client. baseURL is the directory-like prefix
// under which the CSV and metadata files live.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchCSV retrieves a CSV resource as raw text.
func (c *Client) FetchCSV(ctx context.Context, path string) (string, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchMetadata retrieves and decodes a metadata resource. Absent fields come
// back as empty strings; the loader applies the per-field fallbacks.
func (c *Client) FetchMetadata(ctx context.Context, path string) (domain.MetadataDocument, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return domain.MetadataDocument{}, err
	}

	var doc metadataResponse
	if err := json.Unmarshal(body, &doc); err != nil {
		return domain.MetadataDocument{}, fmt.Errorf("decode metadata %s: %w", path, err)
	}

	return domain.MetadataDocument{
		Subtitle: doc.Chart.Subtitle,
		Citation: doc.Chart.Citation,
	}, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("data host error for %s: status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return body, nil
}

// Metadata resource shape: OWID grapher-style JSON with a nested chart block.
type metadataResponse struct {
	Chart struct {
		Subtitle string `json:"subtitle"`
		Citation string `json:"citation"`
	} `json:"chart"`
}
