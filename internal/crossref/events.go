// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crossref

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/orcid-metrics/internal/httputil"
	"github.com/pdiddy/orcid-metrics/pkg/types"
)

// eventsAPIBase is the Event Data query endpoint. Declared as a var so tests
// can substitute an httptest server.
var eventsAPIBase = "https://api.eventdata.crossref.org/v1/events"

// UnknownSource labels events that carry no source name.
const UnknownSource = "unknown"

// EventsClient counts Crossref Event Data mentions of a DOI.
type EventsClient struct {
	HTTP  *http.Client
	Cfg   types.HTTPConfig
	Email string

	// Rows is the page size requested per call.
	Rows int
	// MaxPages caps the pages fetched per DOI.
	MaxPages int
	// Sleep is the pause between consecutive pages.
	Sleep time.Duration
}

// CountBySource pages through every event whose object is doi and counts
// them by source. Paging stops on an empty page, a missing or repeated
// cursor, or after MaxPages pages.
func (c *EventsClient) CountBySource(ctx context.Context, doi string) (map[string]int, error) {
	counts := make(map[string]int)
	cursor := ""

	for page := 1; c.MaxPages <= 0 || page <= c.MaxPages; page++ {
		params := url.Values{
			"obj-id": {"https://doi.org/" + doi},
			"rows":   {strconv.Itoa(c.rows())},
		}
		if c.Email != "" {
			params.Set("mailto", c.Email)
		}
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var er eventsResponse
		err := httputil.GetJSON(ctx, c.HTTP, httputil.Request{
			API:        "Event Data",
			URL:        eventsAPIBase + "?" + params.Encode(),
			UserAgent:  c.Cfg.UserAgent,
			MaxRetries: c.Cfg.MaxRetries,
		}, &er)
		if err != nil {
			return nil, fmt.Errorf("counting events for %s (page %d): %w", doi, page, err)
		}

		if len(er.Message.Events) == 0 {
			break
		}
		for _, ev := range er.Message.Events {
			counts[ev.sourceName()]++
		}

		next := er.Message.NextCursor
		if next == "" || next == cursor {
			break
		}
		cursor = next

		if err := httputil.Pause(ctx, c.Sleep); err != nil {
			return nil, err
		}
	}
	return counts, nil
}

func (c *EventsClient) rows() int {
	if c.Rows <= 0 {
		return types.DefaultEventDataRows
	}
	return c.Rows
}

// MentionCounts merges raw per-source counts with the fixed sources: every
// fixed source is present (zero when it had no events) and every other
// observed source is kept as is.
func MentionCounts(counts map[string]int, fixed []string) map[string]int {
	out := make(map[string]int, len(fixed)+len(counts))
	for _, s := range fixed {
		out[s] = counts[s]
	}
	for s, n := range counts {
		if _, ok := out[s]; !ok {
			out[s] = n
		}
	}
	return out
}

// ZeroMentions returns a mention map with every fixed source set to 0. It is
// used when a work has no DOI or its Event Data lookup failed.
func ZeroMentions(fixed []string) map[string]int {
	return MentionCounts(nil, fixed)
}

// ExtraSources returns the sources in counts that are not fixed, sorted.
func ExtraSources(counts map[string]int, fixed []string) []string {
	isFixed := make(map[string]bool, len(fixed))
	for _, s := range fixed {
		isFixed[s] = true
	}
	var extra []string
	for s := range counts {
		if !isFixed[s] {
			extra = append(extra, s)
		}
	}
	sort.Strings(extra)
	return extra
}

// Event Data API JSON structures.
type eventsResponse struct {
	Status  string        `json:"status"`
	Message eventsMessage `json:"message"`
}

type eventsMessage struct {
	NextCursor   string  `json:"next-cursor"`
	TotalResults int     `json:"total-results"`
	Events       []event `json:"events"`
}

type event struct {
	SourceID string `json:"source_id"`
	Source   string `json:"source"`
}

// sourceName prefers the documented source_id field, then the legacy
// "source" field, then UnknownSource.
func (e event) sourceName() string {
	if s := strings.TrimSpace(e.SourceID); s != "" {
		return s
	}
	if s := strings.TrimSpace(e.Source); s != "" {
		return s
	}
	return UnknownSource
}
