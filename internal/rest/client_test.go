package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFastClient() *Client {
	c := NewClient(time.Second)
	c.backoffMin = time.Millisecond
	c.backoffMax = 2 * time.Millisecond
	return c
}

func TestClient_RetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	var out struct {
		Status string `json:"status"`
	}
	err := newFastClient().DoJSON(context.Background(), Request{Method: http.MethodGet, URL: server.URL}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, 3, attempts)
}

func TestClient_ClientErrorsArePermanent(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"already exists"}`))
	}))
	defer server.Close()

	err := newFastClient().DoJSON(context.Background(), Request{Method: http.MethodPost, URL: server.URL, Body: map[string]string{"a": "b"}}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.True(t, IsStatus(err, http.StatusConflict))
	assert.False(t, IsStatus(err, http.StatusInternalServerError))
}

func TestClient_RetriesExhausted(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := newFastClient().DoJSON(context.Background(), Request{Method: http.MethodGet, URL: server.URL}, nil)
	require.Error(t, err)
	assert.Equal(t, DefaultMaxAttempts, attempts)
	assert.True(t, IsStatus(err, http.StatusServiceUnavailable))
}

func TestClient_FormEncoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	form := url.Values{}
	form.Set("grant_type", "password")
	err := newFastClient().DoJSON(context.Background(), Request{Method: http.MethodPost, URL: server.URL, Form: form}, nil)
	require.NoError(t, err)
}

func TestClient_SetsUserAgentAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PlutusBot/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "SELECT Id FROM Lead", r.URL.Query().Get("q"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	query := url.Values{}
	query.Set("q", "SELECT Id FROM Lead")
	client := newFastClient().WithUserAgent("PlutusBot/1.0")
	err := client.DoJSON(context.Background(), Request{Method: http.MethodGet, URL: server.URL, Query: query}, nil)
	require.NoError(t, err)
}
