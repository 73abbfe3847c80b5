package google

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

const (
	defaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

	typeLocality = "locality"
	typeRegion   = "administrative_area_level_1"
)

// Client talks to the Google Geocoding API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds an API client.
func NewClient(cfg config.GeocodingConfig) *Client {
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
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Geocode looks up candidate coordinates for a free-text address. The provider
// status is passed through untouched.
func (c *Client) Geocode(ctx context.Context, address string) (geo.GeocodeResult, error) {
	values := url.Values{}
	values.Set("address", address)
	raw, err := c.get(ctx, values)
	if err != nil {
		return geo.GeocodeResult{}, err
	}

	res := geo.GeocodeResult{Status: raw.Status}
	for _, r := range raw.Results {
		res.Results = append(res.Results, geo.Coordinates{
			Latitude:  r.Geometry.Location.Lat.String(),
			Longitude: r.Geometry.Location.Lng.String(),
		})
	}
	return res, nil
}

// ReverseGeocode names the city and region containing coords.
func (c *Client) ReverseGeocode(ctx context.Context, coords geo.Coordinates) (geo.Place, error) {
	values := url.Values{}
	values.Set("latlng", coords.Normalize().String())
	raw, err := c.get(ctx, values)
	if err != nil {
		return geo.Place{}, err
	}
	if len(raw.Results) == 0 {
		return geo.Place{}, fmt.Errorf("reverse geocoding returned no results (status=%s)", raw.Status)
	}

	components := raw.Results[0].AddressComponents
	return geo.Place{
		CityName: componentName(components, typeLocality, geo.UnknownCity),
		Region:   componentName(components, typeRegion, geo.UnknownRegion),
	}, nil
}

func (c *Client) get(ctx context.Context, values url.Values) (apiResponse, error) {
	values.Set("key", c.apiKey)
	endpoint := c.baseURL + "?" + values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apiResponse{}, fmt.Errorf("build geocoding request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apiResponse{}, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return apiResponse{}, fmt.Errorf("geocoding request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var raw apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return apiResponse{}, fmt.Errorf("decode geocoding response: %w", err)
	}
	if raw.Status == "" {
		return apiResponse{}, errors.New("geocoding response missing status")
	}
	return raw, nil
}

func componentName(components []addressComponent, kind, fallback string) string {
	for _, comp := range components {
		for _, t := range comp.Types {
			if t == kind && strings.TrimSpace(comp.LongName) != "" {
				return comp.LongName
			}
		}
	}
	return fallback
}

type apiResponse struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message"`
	Results      []result `json:"results"`
}

type result struct {
	Geometry          geometry           `json:"geometry"`
	AddressComponents []addressComponent `json:"address_components"`
}

type geometry struct {
	Location location `json:"location"`
}

// location keeps the provider's decimal text so coordinates compare exactly.
type location struct {
	Lat json.Number `json:"lat"`
	Lng json.Number `json:"lng"`
}

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

var _ geo.Geocoder = (*Client)(nil)
