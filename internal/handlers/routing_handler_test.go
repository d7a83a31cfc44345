package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vroomRequest = `{"jobs":[{"id":1,"location":[-73.9851,40.7589]}],"vehicles":[{"id":1,"profile":"driving-car","start":[-74.006,40.7128]}]}`

func TestOptimizeRoute_Passthrough(t *testing.T) {
	var got string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
		_, _ = w.Write([]byte(`{"code":0,"summary":{"cost":812}}`))
	}))
	defer upstream.Close()
	e := newEnv(t, withOptimizer(upstream.URL))

	w := e.do(http.MethodPost, "/optimize-route", "", vroomRequest)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":0,"summary":{"cost":812}}`, w.Body.String())
	assert.JSONEq(t, vroomRequest, got)
}

func TestOptimizeRoute_UpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":2000,"message":"Unable to parse JSON request."}}`))
	}))
	defer upstream.Close()
	e := newEnv(t, withOptimizer(upstream.URL))

	w := e.do(http.MethodPost, "/optimize-route", "", vroomRequest)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Optimization API returned an error.", body["error"])
	assert.Equal(t, float64(400), body["status_code"])
	assert.NotNil(t, body["details"])
}

func TestOptimizeRoute_BadBody(t *testing.T) {
	e := newEnv(t, withOptimizer("http://127.0.0.1:1"))

	for _, body := range []string{"", "{}", "not json", "null"} {
		w := e.do(http.MethodPost, "/optimize-route", "", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}
}

func TestOptimizeRoute_Unreachable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	upstream.Close()
	e := newEnv(t, withOptimizer(upstream.URL))

	w := e.do(http.MethodPost, "/optimize-route", "", vroomRequest)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
