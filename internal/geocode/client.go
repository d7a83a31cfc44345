package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNoResults means the provider answered but found nothing usable.
	ErrNoResults = errors.New("no geocoding results")
	// ErrUpstream wraps transport failures and non-OK provider answers.
	ErrUpstream = errors.New("geocoding provider error")
)

// Result is the flattened first match returned to API callers.
type Result struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	PlaceID          string  `json:"place_id"`
	FormattedAddress string  `json:"formatted_address"`
	Country          string  `json:"country,omitempty"`
	CountryCode      string  `json:"country_code,omitempty"`
	PostalCode       string  `json:"postal_code,omitempty"`
}

// KeySource resolves the provider API key, e.g. from SSM.
type KeySource func(ctx context.Context) (string, error)

// StaticKey is a KeySource that always returns key.
func StaticKey(key string) KeySource {
	return func(context.Context) (string, error) { return key, nil }
}

// Client calls the Google Geocoding API.
type Client struct {
	baseURL    string
	keySource  KeySource
	httpClient *http.Client

	mu  sync.Mutex
	key string
}

func NewClient(baseURL string, keys KeySource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, keySource: keys, httpClient: httpClient}
}

// apiKey returns the cached key, resolving it once on success.
func (c *Client) apiKey(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.key != "" {
		return c.key, nil
	}
	if c.keySource == nil {
		return "", fmt.Errorf("%w: api key not configured", ErrUpstream)
	}
	key, err := c.keySource(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: resolve api key: %v", ErrUpstream, err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("%w: api key is empty", ErrUpstream)
	}
	c.key = key
	return key, nil
}

type apiResponse struct {
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message"`
	Results      []apiResult `json:"results"`
}

type apiResult struct {
	PlaceID           string         `json:"place_id"`
	FormattedAddress  string         `json:"formatted_address"`
	AddressComponents []apiComponent `json:"address_components"`
	Geometry          struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

type apiComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// Lookup geocodes address and reshapes the first result.
func (c *Client) Lookup(ctx context.Context, address string) (*Result, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: geocoder not configured", ErrUpstream)
	}
	key, err := c.apiKey(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}

	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, ErrNoResults
	default:
		return nil, fmt.Errorf("%w: %s %s", ErrUpstream, body.Status, body.ErrorMessage)
	}
	if len(body.Results) == 0 {
		return nil, ErrNoResults
	}
	return reshape(body.Results[0]), nil
}

func reshape(r apiResult) *Result {
	out := &Result{
		Lat:              r.Geometry.Location.Lat,
		Lng:              r.Geometry.Location.Lng,
		PlaceID:          r.PlaceID,
		FormattedAddress: r.FormattedAddress,
	}
	for _, comp := range r.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "country":
				out.Country = comp.LongName
				out.CountryCode = comp.ShortName
			case "postal_code":
				out.PostalCode = comp.LongName
			}
		}
	}
	return out
}
