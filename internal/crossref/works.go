// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crossref reads citation metadata from the Crossref REST API and
// mention events from Crossref Event Data.
package crossref

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/orcid-metrics/internal/httputil"
	"github.com/pdiddy/orcid-metrics/pkg/types"
)

// worksAPIBase is the Crossref works endpoint. Declared as a var so tests
// can substitute an httptest server.
var worksAPIBase = "https://api.crossref.org/works"

// WorksClient looks up DOIs in the Crossref REST API.
type WorksClient struct {
	HTTP *http.Client
	Cfg  types.HTTPConfig
	// Email is sent as mailto parameter for polite pool access.
	Email string
}

// Lookup returns the citation metrics Crossref holds for doi.
func (c *WorksClient) Lookup(ctx context.Context, doi string) (types.CrossrefMetrics, error) {
	apiURL, err := url.JoinPath(worksAPIBase, doi)
	if err != nil {
		return types.CrossrefMetrics{}, fmt.Errorf("building Crossref URL for %s: %w", doi, err)
	}
	if c.Email != "" {
		apiURL += "?" + url.Values{"mailto": {c.Email}}.Encode()
	}

	var cr worksResponse
	err = httputil.GetJSON(ctx, c.HTTP, httputil.Request{
		API:        "Crossref",
		URL:        apiURL,
		UserAgent:  c.Cfg.UserAgent,
		MaxRetries: c.Cfg.MaxRetries,
	}, &cr)
	if err != nil {
		return types.CrossrefMetrics{}, fmt.Errorf("looking up %s: %w", doi, err)
	}
	return cr.Message.metrics(), nil
}

// Crossref API JSON structures.
type worksResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	IsReferencedByCount *int      `json:"is-referenced-by-count"`
	ReferencesCount     *int      `json:"references-count"`
	ContainerTitle      []string  `json:"container-title"`
	Publisher           *string   `json:"publisher"`
	Issued              *dateInfo `json:"issued"`
}

type dateInfo struct {
	DateParts [][]*int `json:"date-parts"`
}

func (w crossrefWork) metrics() types.CrossrefMetrics {
	m := types.CrossrefMetrics{
		IsReferencedByCount: w.IsReferencedByCount,
		ReferencesCount:     w.ReferencesCount,
		Publisher:           w.Publisher,
	}
	if len(w.ContainerTitle) > 0 {
		title := w.ContainerTitle[0]
		m.ContainerTitle = &title
	}
	if w.Issued != nil && len(w.Issued.DateParts) > 0 && len(w.Issued.DateParts[0]) > 0 {
		m.IssuedYear = w.Issued.DateParts[0][0]
	}
	return m
}
