// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orcid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/orcid-metrics/internal/httputil"
	"github.com/pdiddy/orcid-metrics/pkg/types"
)

const sampleWorksJSON = `{
  "last-modified-date": {"value": 1700000000000},
  "group": [
    {
      "work-summary": [
        {
          "put-code": 101,
          "title": {"title": {"value": "Citation dynamics of open data"}},
          "type": "journal-article",
          "publication-date": {"year": {"value": "2021"}, "month": {"value": "03"}},
          "source": {"source-name": {"value": "Crossref"}}
        },
        {
          "put-code": 102,
          "title": {"title": {"value": "Citation dynamics of open data (preprint)"}},
          "type": "preprint",
          "publication-date": null,
          "source": {"source-name": {"value": "Jane Doe"}}
        }
      ]
    },
    {
      "work-summary": [
        {
          "put-code": 205,
          "title": null,
          "type": "conference-paper",
          "publication-date": {"year": null},
          "source": null
        }
      ]
    }
  ]
}`

const sampleWorkDetailJSON = `{
  "put-code": 101,
  "external-ids": {
    "external-id": [
      {"external-id-type": "eid", "external-id-value": "2-s2.0-85100000000"},
      {"external-id-type": "doi", "external-id-value": "https://doi.org/10.1371/journal.pone.0000001"}
    ]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	orig := apiBase
	apiBase = ts.URL
	t.Cleanup(func() { apiBase = orig })

	return &Client{
		HTTP: ts.Client(),
		Cfg:  types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "orcid-metrics-test/0.1"},
	}
}

func TestListWorks(t *testing.T) {
	var gotPath, gotAccept string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		fmt.Fprint(w, sampleWorksJSON)
	})

	works, err := c.ListWorks(context.Background(), "0000-0002-1825-0097")
	require.NoError(t, err)

	assert.Equal(t, "/0000-0002-1825-0097/works", gotPath)
	assert.Equal(t, "application/json", gotAccept)
	require.Len(t, works, 3)

	assert.Equal(t, WorkSummary{
		PutCode:         101,
		Title:           "Citation dynamics of open data",
		Type:            "journal-article",
		PublicationYear: "2021",
		SourceName:      "Crossref",
	}, works[0])
	assert.Equal(t, int64(102), works[1].PutCode)
	assert.Empty(t, works[1].PublicationYear)
	assert.Equal(t, "Jane Doe", works[1].SourceName)

	// Null title, year and source decode to empty strings.
	assert.Equal(t, WorkSummary{PutCode: 205, Type: "conference-paper"}, works[2])
}

func TestListWorksEmptyRecord(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"group": []}`)
	})

	works, err := c.ListWorks(context.Background(), "0000-0002-1825-0097")
	require.NoError(t, err)
	assert.Empty(t, works)
}

func TestListWorksNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"response-code": 404}`)
	})

	_, err := c.ListWorks(context.Background(), "0000-0000-0000-0000")
	require.Error(t, err)
	assert.True(t, httputil.IsNotFound(err))
	assert.Contains(t, err.Error(), "listing works for 0000-0000-0000-0000")
}

func TestWorkDetail(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, sampleWorkDetailJSON)
	})

	work, err := c.WorkDetail(context.Background(), "0000-0002-1825-0097", 101)
	require.NoError(t, err)

	assert.Equal(t, "/0000-0002-1825-0097/work/101", gotPath)
	assert.Len(t, work.IDs(), 2)
	assert.Equal(t, "10.1371/journal.pone.0000001", work.DOI())
}

func TestWorkDOI(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{
			name: "typed doi wins over earlier embedded doi",
			json: `{"external-ids": {"external-id": [
				{"external-id-type": "uri", "external-id-value": "https://doi.org/10.1000/other"},
				{"external-id-type": "DOI", "external-id-value": "10.1000/typed"}]}}`,
			want: "10.1000/typed",
		},
		{
			name: "typed doi without pattern kept verbatim",
			json: `{"external-ids": {"external-id": [
				{"external-id-type": "doi", "external-id-value": "  doi-pending  "}]}}`,
			want: "doi-pending",
		},
		{
			name: "fallback to embedded doi in other id",
			json: `{"external-ids": {"external-id": [
				{"external-id-type": "pmid", "external-id-value": "12345"},
				{"external-id-type": "uri", "external-id-value": "https://doi.org/10.5555/embedded)."}]}}`,
			want: "10.5555/embedded",
		},
		{
			name: "no usable ids",
			json: `{"external-ids": {"external-id": [
				{"external-id-type": "pmid", "external-id-value": "12345"}]}}`,
			want: "",
		},
		{
			name: "null external ids",
			json: `{"external-ids": null}`,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w Work
			require.NoError(t, json.Unmarshal([]byte(tt.json), &w))
			assert.Equal(t, tt.want, w.DOI())
		})
	}
}

func TestWorkDOINilWork(t *testing.T) {
	var w *Work
	assert.Empty(t, w.DOI())
}
