package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{
  "status": "OK",
  "results": [{
    "place_id": "ChIJOwg_06VPwokRYv534QaPC8g",
    "formatted_address": "New York, NY, USA",
    "geometry": {"location": {"lat": 40.7127753, "lng": -74.0059728}},
    "address_components": [
      {"long_name": "New York", "short_name": "New York", "types": ["locality", "political"]},
      {"long_name": "United States", "short_name": "US", "types": ["country", "political"]},
      {"long_name": "10007", "short_name": "10007", "types": ["postal_code"]}
    ]
  }]
}`

func server(t *testing.T, body string, gotQuery *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotQuery != nil {
			*gotQuery = r.URL.RawQuery
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLookup_Reshapes(t *testing.T) {
	var q string
	srv := server(t, okBody, &q)

	res, err := NewClient(srv.URL, StaticKey("gkey"), nil).Lookup(context.Background(), "New York")
	require.NoError(t, err)
	assert.Equal(t, &Result{
		Lat:              40.7127753,
		Lng:              -74.0059728,
		PlaceID:          "ChIJOwg_06VPwokRYv534QaPC8g",
		FormattedAddress: "New York, NY, USA",
		Country:          "United States",
		CountryCode:      "US",
		PostalCode:       "10007",
	}, res)
	assert.Contains(t, q, "address=New+York")
	assert.Contains(t, q, "key=gkey")
}

func TestLookup_ZeroResults(t *testing.T) {
	srv := server(t, `{"status":"ZERO_RESULTS","results":[]}`, nil)

	_, err := NewClient(srv.URL, StaticKey("k"), nil).Lookup(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestLookup_ProviderDenied(t *testing.T) {
	srv := server(t, `{"status":"REQUEST_DENIED","error_message":"bad key"}`, nil)

	_, err := NewClient(srv.URL, StaticKey("k"), nil).Lookup(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "bad key")
}

func TestLookup_KeyResolvedOnce(t *testing.T) {
	srv := server(t, okBody, nil)
	calls := 0
	keys := func(context.Context) (string, error) {
		calls++
		return "k", nil
	}
	c := NewClient(srv.URL, keys, nil)

	for i := 0; i < 3; i++ {
		_, err := c.Lookup(context.Background(), "x")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls)
}

func TestLookup_KeyFailureRetried(t *testing.T) {
	srv := server(t, okBody, nil)
	fail := true
	keys := func(context.Context) (string, error) {
		if fail {
			return "", errors.New("ssm down")
		}
		return "k", nil
	}
	c := NewClient(srv.URL, keys, nil)

	_, err := c.Lookup(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUpstream)

	fail = false
	_, err = c.Lookup(context.Background(), "x")
	assert.NoError(t, err)
}
