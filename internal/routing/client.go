package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single optimization call.
const DefaultTimeout = 30 * time.Second

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("route optimization API key is not configured")

// UpstreamError is a non-2xx answer from the optimization API.
type UpstreamError struct {
	StatusCode int
	Details    any
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("optimization API returned status %d", e.StatusCode)
}

// Client calls the openrouteservice (VROOM) optimization endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a client; httpClient nil means a client with DefaultTimeout.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: httpClient,
	}
}

// Optimize posts a raw optimization request and returns the raw solution and
// upstream status. Non-2xx answers come back as *UpstreamError.
func (c *Client) Optimize(ctx context.Context, payload json.RawMessage) (json.RawMessage, int, error) {
	if c == nil || c.apiKey == "" {
		return nil, 0, ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/optimization", bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("build optimization request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("call optimization API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read optimization response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var details any
		if json.Unmarshal(body, &details) != nil {
			details = map[string]string{"message": string(body)}
		}
		return nil, resp.StatusCode, &UpstreamError{StatusCode: resp.StatusCode, Details: details}
	}
	if !json.Valid(body) {
		return nil, resp.StatusCode, errors.New("optimization API returned invalid json")
	}
	return body, resp.StatusCode, nil
}

// Problem is the optimization request built for a stored order.
type Problem struct {
	Vehicles []Vehicle `json:"vehicles"`
	Jobs     []Job     `json:"jobs"`
}

type Vehicle struct {
	ID      int        `json:"id"`
	Profile string     `json:"profile"`
	Start   [2]float64 `json:"start"`
	End     [2]float64 `json:"end"`
}

type Job struct {
	ID       int        `json:"id"`
	Location [2]float64 `json:"location"`
}

// Profiles maps order vehicle types to ORS routing profiles.
var Profiles = map[string]string{
	"car":     "driving-car",
	"van":     "driving-hgv",
	"truck":   "driving-hgv",
	"bike":    "cycling-regular",
	"bicycle": "cycling-regular",
	"walk":    "foot-walking",
}

// BuildProblem turns a pickup and delivery stops into a single-vehicle round
// trip. Points are objects with numeric lat/lng.
func BuildProblem(vehicleType string, pickup any, deliveries any) (*Problem, error) {
	start, err := point(pickup)
	if err != nil {
		return nil, fmt.Errorf("pickup_location: %w", err)
	}
	stops, ok := deliveries.([]any)
	if !ok || len(stops) == 0 {
		return nil, errors.New("delivery_locations: expected a non-empty list")
	}
	profile, ok := Profiles[strings.ToLower(vehicleType)]
	if !ok {
		profile = Profiles["car"]
	}

	p := &Problem{
		Vehicles: []Vehicle{{ID: 1, Profile: profile, Start: start, End: start}},
	}
	for i, s := range stops {
		loc, err := point(s)
		if err != nil {
			return nil, fmt.Errorf("delivery_locations[%d]: %w", i, err)
		}
		p.Jobs = append(p.Jobs, Job{ID: i + 1, Location: loc})
	}
	return p, nil
}

// point returns [lng, lat], the coordinate order ORS expects.
func point(v any) ([2]float64, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return [2]float64{}, errors.New("expected an object with lat and lng")
	}
	lat, err := number(m["lat"])
	if err != nil {
		return [2]float64{}, fmt.Errorf("lat: %w", err)
	}
	lng, err := number(m["lng"])
	if err != nil {
		return [2]float64{}, fmt.Errorf("lng: %w", err)
	}
	return [2]float64{lng, lat}, nil
}

func number(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case json.Number:
		return x.Float64()
	case int:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
