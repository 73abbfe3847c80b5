package ipinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yanqian/weather-favorites/internal/domain/geo"
	"github.com/yanqian/weather-favorites/internal/infra/config"
)

const defaultBaseURL = "https://ipinfo.io/json"

// Client looks up the approximate location of the calling host.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds an API client.
func NewClient(cfg config.IPLookupConfig) *Client {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: base,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Locate returns the "lat,long" string reported for the caller.
func (c *Client) Locate(ctx context.Context) (string, error) {
	endpoint := c.baseURL
	if c.token != "" {
		endpoint = fmt.Sprintf("%s?token=%s", c.baseURL, url.QueryEscape(c.token))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build ip lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ip lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("ip lookup request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var raw apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("decode ip lookup response: %w", err)
	}
	if strings.TrimSpace(raw.Loc) == "" {
		return "", errors.New("ip lookup response missing loc")
	}
	return raw.Loc, nil
}

type apiResponse struct {
	IP      string `json:"ip"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Loc     string `json:"loc"`
}

var _ geo.IPLocator = (*Client)(nil)
