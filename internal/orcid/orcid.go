// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orcid reads public works from the ORCID v3.0 API.
package orcid

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pdiddy/orcid-metrics/internal/httputil"
	"github.com/pdiddy/orcid-metrics/internal/ident"
	"github.com/pdiddy/orcid-metrics/pkg/types"
)

// apiBase is the ORCID public API root. Declared as a var so tests can
// substitute an httptest server.
var apiBase = "https://pub.orcid.org/v3.0"

// Client queries the ORCID public API.
type Client struct {
	HTTP *http.Client
	Cfg  types.HTTPConfig
}

// WorkSummary is one entry of an ORCID record's works list.
type WorkSummary struct {
	PutCode         int64
	Title           string
	Type            string
	PublicationYear string
	SourceName      string
}

// ListWorks returns every work summary in every group of the record, in the
// order ORCID lists them.
func (c *Client) ListWorks(ctx context.Context, orcid string) ([]WorkSummary, error) {
	var data worksResponse
	err := httputil.GetJSON(ctx, c.HTTP, httputil.Request{
		API:        "ORCID",
		URL:        apiBase + "/" + orcid + "/works",
		UserAgent:  c.Cfg.UserAgent,
		MaxRetries: c.Cfg.MaxRetries,
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("listing works for %s: %w", orcid, err)
	}

	var works []WorkSummary
	for _, g := range data.Group {
		for _, ws := range g.WorkSummary {
			works = append(works, WorkSummary{
				PutCode:         ws.PutCode,
				Title:           ws.Title.title(),
				Type:            ws.Type,
				PublicationYear: ws.PublicationDate.year(),
				SourceName:      ws.Source.name(),
			})
		}
	}
	return works, nil
}

// WorkDetail fetches the full record of a single work.
func (c *Client) WorkDetail(ctx context.Context, orcid string, putCode int64) (*Work, error) {
	var w Work
	err := httputil.GetJSON(ctx, c.HTTP, httputil.Request{
		API:        "ORCID",
		URL:        apiBase + "/" + orcid + "/work/" + strconv.FormatInt(putCode, 10),
		UserAgent:  c.Cfg.UserAgent,
		MaxRetries: c.Cfg.MaxRetries,
	}, &w)
	if err != nil {
		return nil, fmt.Errorf("fetching work %d for %s: %w", putCode, orcid, err)
	}
	return &w, nil
}

// Work is the subset of an ORCID work record needed to find its DOI.
type Work struct {
	ExternalIDs *externalIDs `json:"external-ids"`
}

type externalIDs struct {
	ExternalID []ExternalID `json:"external-id"`
}

// ExternalID is one identifier attached to a work (DOI, PMID, URL, ...).
type ExternalID struct {
	Type  string `json:"external-id-type"`
	Value string `json:"external-id-value"`
}

// IDs returns the work's external identifiers.
func (w *Work) IDs() []ExternalID {
	if w == nil || w.ExternalIDs == nil {
		return nil
	}
	return w.ExternalIDs.ExternalID
}

// DOI picks the work's DOI. An id typed "doi" wins; its value is cleaned to
// the bare DOI when one can be found in it and kept verbatim otherwise.
// Failing that, the first id of any type whose value embeds a DOI is used.
// It returns "" when neither rule finds anything.
func (w *Work) DOI() string {
	ids := w.IDs()
	for _, id := range ids {
		if strings.EqualFold(id.Type, "doi") {
			v := strings.TrimSpace(id.Value)
			if doi := ident.DOIFromText(v); doi != "" {
				return doi
			}
			return v
		}
	}
	for _, id := range ids {
		if doi := ident.DOIFromText(id.Value); doi != "" {
			return doi
		}
	}
	return ""
}

// ORCID API JSON structures. Every nested object may be null.
type worksResponse struct {
	Group []struct {
		WorkSummary []workSummary `json:"work-summary"`
	} `json:"group"`
}

type workSummary struct {
	PutCode         int64            `json:"put-code"`
	Title           *titleContainer  `json:"title"`
	Type            string           `json:"type"`
	PublicationDate *publicationDate `json:"publication-date"`
	Source          *source          `json:"source"`
}

type valueField struct {
	Value string `json:"value"`
}

type titleContainer struct {
	Title *valueField `json:"title"`
}

func (t *titleContainer) title() string {
	if t == nil || t.Title == nil {
		return ""
	}
	return t.Title.Value
}

type publicationDate struct {
	Year *valueField `json:"year"`
}

func (d *publicationDate) year() string {
	if d == nil || d.Year == nil {
		return ""
	}
	return d.Year.Value
}

type source struct {
	SourceName *valueField `json:"source-name"`
}

func (s *source) name() string {
	if s == nil || s.SourceName == nil {
		return ""
	}
	return s.SourceName.Value
}
