// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect runs the extraction pipeline: ORCID works, then Crossref
// metrics and Event Data mentions for every work that has a DOI.
package collect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pdiddy/orcid-metrics/internal/crossref"
	"github.com/pdiddy/orcid-metrics/internal/httputil"
	"github.com/pdiddy/orcid-metrics/internal/orcid"
	"github.com/pdiddy/orcid-metrics/pkg/types"
)

var (
	// ErrNoORCIDs is returned when Run is given nothing to query.
	ErrNoORCIDs = errors.New("no valid ORCID identifiers")
	// ErrNoSources is returned when no fixed mention source is selected.
	ErrNoSources = errors.New("no fixed mention sources selected")
)

// WorksSource lists an ORCID record's works and resolves work details.
type WorksSource interface {
	ListWorks(ctx context.Context, orcid string) ([]orcid.WorkSummary, error)
	WorkDetail(ctx context.Context, orcid string, putCode int64) (*orcid.Work, error)
}

// MetricsSource returns Crossref citation metrics for a DOI.
type MetricsSource interface {
	Lookup(ctx context.Context, doi string) (types.CrossrefMetrics, error)
}

// MentionSource counts Event Data events for a DOI by source.
type MentionSource interface {
	CountBySource(ctx context.Context, doi string) (map[string]int, error)
}

// Collector holds the upstream clients for one run.
type Collector struct {
	Works    WorksSource
	Crossref MetricsSource
	Events   MentionSource
	Logger   *slog.Logger
}

// New builds a Collector backed by the real ORCID and Crossref clients. Each
// client gets its own *http.Client from newHTTP so callers can instrument
// them per upstream.
func New(cfg types.ExtractionConfig, newHTTP func(api string) *http.Client, logger *slog.Logger) *Collector {
	return &Collector{
		Works: &orcid.Client{HTTP: newHTTP("orcid"), Cfg: cfg.HTTPConfig},
		Crossref: &crossref.WorksClient{
			HTTP:  newHTTP("crossref"),
			Cfg:   cfg.HTTPConfig,
			Email: cfg.Email,
		},
		Events: &crossref.EventsClient{
			HTTP:     newHTTP("eventdata"),
			Cfg:      cfg.HTTPConfig,
			Email:    cfg.Email,
			Rows:     cfg.EventDataRows,
			MaxPages: cfg.EventDataMaxPages,
			Sleep:    cfg.Sleep,
		},
		Logger: logger,
	}
}

// Options tune a single run.
type Options struct {
	// Sleep is the pause before every upstream call.
	Sleep time.Duration

	// FixedSources always get a mention column.
	FixedSources []string

	// Log receives human-readable progress lines. Nil discards them.
	Log io.Writer

	// Progress is called once each ORCID is finished, failed or not, with the
	// number of ORCIDs handled so far and the total.
	Progress func(done, total int)
}

func (o Options) progress(done, total int) {
	if o.Progress != nil {
		o.Progress(done, total)
	}
}

// Summary counts what happened during a run.
type Summary struct {
	ORCIDs          int
	FailedORCIDs    []string
	Works           int
	WithDOI         int
	CrossrefErrors  int
	EventDataErrors int
	Started         time.Time
	Finished        time.Time
}

// Duration is the wall time of the run.
func (s Summary) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}

// Result is the output of Run.
type Result struct {
	Rows    []types.WorkRow
	Summary Summary
}

// Run collects one row per work listed under each ORCID, in input order.
// Failures of individual upstream calls never abort the run: an ORCID whose
// works cannot be listed is skipped, and a work whose detail, Crossref or
// Event Data call fails is still emitted with the affected columns blank
// (or zero for mentions). Only context cancellation stops the run early.
func (c *Collector) Run(ctx context.Context, orcids []string, opts Options) (*Result, error) {
	if len(orcids) == 0 {
		return nil, ErrNoORCIDs
	}
	if len(opts.FixedSources) == 0 {
		return nil, ErrNoSources
	}

	w := opts.Log
	if w == nil {
		w = io.Discard
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	res := &Result{Summary: Summary{ORCIDs: len(orcids), Started: time.Now()}}
	fmt.Fprintf(w, "Start: %s\n", res.Summary.Started.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Valid ORCIDs: %d | Fixed sources: %d\n", len(orcids), len(opts.FixedSources))

	total := len(orcids)
	for i, id := range orcids {
		fmt.Fprintf(w, "[ORCID %d/%d] %s\n", i+1, total, id)

		if err := httputil.Pause(ctx, opts.Sleep); err != nil {
			return nil, err
		}
		works, err := c.Works.ListWorks(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			fmt.Fprintf(w, "  ! error listing works for ORCID %s: %v\n", id, err)
			logger.WarnContext(ctx, "listing works failed", "orcid", id, "error", err)
			res.Summary.FailedORCIDs = append(res.Summary.FailedORCIDs, id)
			opts.progress(i+1, total)
			continue
		}
		fmt.Fprintf(w, "  - works in ORCID: %d\n", len(works))

		for j, ws := range works {
			fmt.Fprintf(w, "    [%d/%d] put-code=%d | %s\n", j+1, len(works), ws.PutCode, ws.Title)
			row, err := c.collectWork(ctx, id, ws, opts, &res.Summary, logger)
			if err != nil {
				return nil, err
			}
			res.Rows = append(res.Rows, row)
		}
		opts.progress(i+1, total)
	}

	res.Summary.Works = len(res.Rows)
	res.Summary.Finished = time.Now()
	fmt.Fprintf(w, "Collection finished. Rows: %d\n", len(res.Rows))
	fmt.Fprintf(w, "End: %s\n", res.Summary.Finished.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Duration: %s\n", res.Summary.Duration().Round(time.Millisecond))

	logger.InfoContext(ctx, "collection finished",
		"orcids", res.Summary.ORCIDs,
		"failed_orcids", len(res.Summary.FailedORCIDs),
		"works", res.Summary.Works,
		"with_doi", res.Summary.WithDOI,
		"duration_ms", res.Summary.Duration().Milliseconds(),
	)
	return res, nil
}

// collectWork builds the row for one work summary. The only error it returns
// is context cancellation.
func (c *Collector) collectWork(ctx context.Context, id string, ws orcid.WorkSummary, opts Options, sum *Summary, logger *slog.Logger) (types.WorkRow, error) {
	row := types.WorkRow{
		ORCID:                id,
		PutCode:              ws.PutCode,
		Title:                ws.Title,
		Type:                 ws.Type,
		PublicationYearORCID: ws.PublicationYear,
		SourceORCID:          ws.SourceName,
	}

	if err := httputil.Pause(ctx, opts.Sleep); err != nil {
		return row, err
	}
	detail, err := c.Works.WorkDetail(ctx, id, ws.PutCode)
	if err != nil {
		if ctx.Err() != nil {
			return row, ctx.Err()
		}
		logger.DebugContext(ctx, "work detail failed", "orcid", id, "put_code", ws.PutCode, "error", err)
	} else {
		row.DOI = detail.DOI()
	}

	if row.DOI == "" {
		row.Mentions = crossref.ZeroMentions(opts.FixedSources)
		return row, nil
	}
	sum.WithDOI++

	if err := httputil.Pause(ctx, opts.Sleep); err != nil {
		return row, err
	}
	metrics, err := c.Crossref.Lookup(ctx, row.DOI)
	if err != nil {
		if ctx.Err() != nil {
			return row, ctx.Err()
		}
		sum.CrossrefErrors++
		if httputil.IsNotFound(err) {
			logger.DebugContext(ctx, "DOI not registered with Crossref", "doi", row.DOI)
		} else {
			logger.WarnContext(ctx, "crossref lookup failed", "doi", row.DOI, "error", err)
		}
	} else {
		row.CrossrefMetrics = metrics
	}

	if err := httputil.Pause(ctx, opts.Sleep); err != nil {
		return row, err
	}
	counts, err := c.Events.CountBySource(ctx, row.DOI)
	if err != nil {
		if ctx.Err() != nil {
			return row, ctx.Err()
		}
		sum.EventDataErrors++
		logger.DebugContext(ctx, "event data failed", "doi", row.DOI, "error", err)
		row.Mentions = crossref.ZeroMentions(opts.FixedSources)
	} else {
		row.Mentions = crossref.MentionCounts(counts, opts.FixedSources)
	}
	return row, nil
}

