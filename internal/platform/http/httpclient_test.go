package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	c := NewHTTPClient(3 * time.Second)
	assert.Equal(t, 3*time.Second, c.Timeout)
	_, ok := c.Transport.(*http.Transport)
	assert.True(t, ok)
}

func TestPostJSON_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ping", body["msg"])

		_, _ = w.Write([]byte(`{"msg":"pong"}`))
	}))
	t.Cleanup(srv.Close)

	var out struct {
		Msg string `json:"msg"`
	}
	err := PostJSON(context.Background(), srv.Client(), srv.URL, map[string]string{"Authorization": "Bearer k"}, map[string]string{"msg": "ping"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "pong", out.Msg)
}

func TestPostJSON_Non2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	t.Cleanup(srv.Close)

	var out map[string]any
	err := PostJSON(context.Background(), srv.Client(), srv.URL, nil, map[string]string{}, &out)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, "upstream down", se.Body)
}

func TestPostJSON_BadJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	t.Cleanup(srv.Close)

	var out map[string]any
	err := PostJSON(context.Background(), srv.Client(), srv.URL, nil, map[string]string{}, &out)
	assert.ErrorContains(t, err, "decode response")
}

func TestPostJSON_ContextCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out map[string]any
	err := PostJSON(ctx, srv.Client(), srv.URL, nil, map[string]string{}, &out)
	assert.ErrorIs(t, err, context.Canceled)
}
