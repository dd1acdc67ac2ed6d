// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON(t *testing.T) {
	var gotHeader http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"name": "orcid", "count": 3}`)
	}))
	defer ts.Close()

	var out struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	err := GetJSON(context.Background(), ts.Client(), Request{
		API:       "Test",
		URL:       ts.URL,
		UserAgent: "orcid-metrics-test/0.1",
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, "orcid", out.Name)
	assert.Equal(t, 3, out.Count)
	assert.Equal(t, "application/json", gotHeader.Get("Accept"))
	assert.Equal(t, "orcid-metrics-test/0.1", gotHeader.Get("User-Agent"))
}

func TestGetJSONStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer ts.Close()

	var out map[string]any
	err := GetJSON(context.Background(), ts.Client(), Request{API: "Crossref", URL: ts.URL}, &out)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrStatus)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Crossref API returned HTTP 404", err.Error())

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestGetJSONBadBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{not json`)
	}))
	defer ts.Close()

	var out map[string]any
	err := GetJSON(context.Background(), ts.Client(), Request{API: "ORCID", URL: ts.URL}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing ORCID response")
	assert.False(t, IsNotFound(err))
}

func TestGetJSONUnreachable(t *testing.T) {
	var out map[string]any
	err := GetJSON(context.Background(), http.DefaultClient, Request{API: "ORCID", URL: "http://127.0.0.1:1/"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ORCID API request")
}
