package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://nominatim.openstreetmap.org/reverse"
	defaultTimeout = 5 * time.Second
	// Street-level detail, enough to resolve the municipality.
	zoomLevel = "18"
)

// ErrNoPlace reports that the service answered but no usable place name was
// found at the coordinates.
var ErrNoPlace = errors.New("no place name for coordinates")

// Config captures the reverse geocoding settings.
type Config struct {
	BaseURL        string
	Language       string
	UserAgent      string
	TimeoutSeconds int
}

// Client resolves GPS coordinates to place names via a Nominatim endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a reverse geocoding client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Language:       strings.TrimSpace(cfg.Language),
			UserAgent:      strings.TrimSpace(cfg.UserAgent),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.Language == "" {
		client.cfg.Language = "de"
	}
	if client.cfg.UserAgent == "" {
		client.cfg.UserAgent = "photoflow/dev"
	}
	return client
}

type reverseResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Hamlet  string `json:"hamlet"`
		County  string `json:"county"`
		State   string `json:"state"`
	} `json:"address"`
	Error string `json:"error"`
}

// Reverse resolves coordinates to a place name. Preference order runs from
// the most specific settlement down to the state so dense and rural locations
// both produce something useful.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	params.Set("zoom", zoomLevel)
	params.Set("addressdetails", "1")

	endpoint := c.cfg.BaseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept-Language", c.cfg.Language)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocode after %s: %w", time.Since(start).Round(time.Millisecond), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("geocode: read response: %w", err)
	}

	var decoded reverseResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("geocode: decode response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("geocode: %s", decoded.Error)
	}

	for _, candidate := range []string{
		decoded.Address.City,
		decoded.Address.Town,
		decoded.Address.Village,
		decoded.Address.Hamlet,
		decoded.Address.County,
		decoded.Address.State,
	} {
		if name := strings.TrimSpace(candidate); name != "" {
			return name, nil
		}
	}
	return "", ErrNoPlace
}
