package rest

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	api := newAPI(t)

	resp := api.do(t, http.MethodGet, "/health", "", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	var h healthResponse
	resp.decode(t, &h)
	assert.Equal(t, "ok", h.Status)
	assert.False(t, h.Timestamp.IsZero())
}

func TestHealth_DatabaseDown(t *testing.T) {
	api := newAPI(t, withPing(func(context.Context) error { return errors.New("connection refused") }))

	resp := api.do(t, http.MethodGet, "/health", "", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.status)
	var h healthResponse
	resp.decode(t, &h)
	assert.Equal(t, "unavailable", h.Status)
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	api := newAPI(t)

	resp := api.do(t, http.MethodGet, "/api/v1/nope", "", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Equal(t, "route not found", resp.errorMessage(t))

	resp = api.do(t, http.MethodPatch, "/health", "", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.status)
}

func TestRouter_CORSPreflight(t *testing.T) {
	api := newAPI(t)

	req, err := http.NewRequest(http.MethodOptions, api.srv.URL+"/api/v1/scans", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://viewer.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	resp, err := api.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestRouter_Metrics(t *testing.T) {
	api := newAPI(t)
	api.do(t, http.MethodGet, "/health", "", nil, "")

	resp := api.do(t, http.MethodGet, "/metrics", "", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, string(resp.body), `scanvault_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, string(resp.body), "scanvault_http_requests_in_flight")
}
