// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package web serves the browser front end: an upload form, ORCID
// validation and the extract-and-download endpoint.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/orcid-metrics/internal/collect"
	"github.com/pdiddy/orcid-metrics/internal/ident"
	"github.com/pdiddy/orcid-metrics/internal/metrics"
	"github.com/pdiddy/orcid-metrics/internal/report"
	"github.com/pdiddy/orcid-metrics/internal/sheet"
	"github.com/pdiddy/orcid-metrics/pkg/types"
)

// Response headers set on a successful extraction.
const (
	HeaderRunID    = "X-Run-ID"
	HeaderRowCount = "X-Row-Count"
	HeaderWarning  = "X-Warning"
)

// Runner executes the extraction pipeline.
type Runner interface {
	Run(ctx context.Context, orcids []string, opts collect.Options) (*collect.Result, error)
}

// Handler wires the HTTP endpoints to the pipeline.
type Handler struct {
	defaults  types.ExtractionConfig
	server    types.ServerConfig
	newRunner func(types.ExtractionConfig) Runner
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// New constructs a Handler. defaults seeds every form field the client
// leaves empty; newRunner builds the pipeline for the merged settings.
func New(defaults types.ExtractionConfig, server types.ServerConfig, newRunner func(types.ExtractionConfig) Runner, logger *slog.Logger, m *metrics.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		defaults:  defaults,
		server:    server,
		newRunner: newRunner,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// Register mounts the endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.HandleForm)
	r.Get("/sources", h.HandleSources)
	r.Get("/healthz", h.HandleHealth)
	r.Post("/validate", h.HandleValidate)
	r.Post("/extract", h.HandleExtract)
}

// ValidateResponse is the body of POST /validate.
type ValidateResponse struct {
	File         string     `json:"file"`
	Column       string     `json:"column"`
	Rows         int        `json:"rows"`
	ValidCount   int        `json:"valid_count"`
	InvalidCount int        `json:"invalid_count"`
	Valid        []string   `json:"valid"`
	Invalid      []string   `json:"invalid"`
	Preview      [][]string `json:"preview,omitempty"`
}

// SourcesResponse is the body of GET /sources.
type SourcesResponse struct {
	FixedSources      []string `json:"fixed_sources"`
	EventDataRows     []int    `json:"eventdata_rows_options"`
	MaxEventDataPages int      `json:"max_eventdata_pages"`
	MaxSleepSeconds   float64  `json:"max_sleep_seconds"`
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleSources handles GET /sources.
func (h *Handler) HandleSources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, SourcesResponse{
		FixedSources:      h.defaults.FixedSources,
		EventDataRows:     types.AllowedEventDataRows,
		MaxEventDataPages: types.MaxEventDataPages,
		MaxSleepSeconds:   types.MaxSleep.Seconds(),
	})
}

// HandleValidate handles POST /validate: it parses the uploaded sheet and
// reports which identifiers are valid ORCIDs.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	in, name, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	valid, invalid := ident.CleanORCIDs(in.Values)
	h.metrics.AddInvalidORCIDs(len(invalid))

	writeJSON(w, http.StatusOK, ValidateResponse{
		File:         name,
		Column:       in.Column,
		Rows:         len(in.Values),
		ValidCount:   len(valid),
		InvalidCount: len(invalid),
		Valid:        nonNil(valid),
		Invalid:      nonNil(invalid),
		Preview:      in.Preview,
	})
}

// HandleExtract handles POST /extract: it validates the upload, runs the
// pipeline and returns the consolidated table as a download. With
// view=page the response is an HTML page carrying the run log, the run
// report and the table as a download link.
func (h *Handler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	in, name, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	cfg, format, err := h.settings(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	page := r.FormValue("view") == ViewPage

	valid, invalid := ident.CleanORCIDs(in.Values)
	h.metrics.AddInvalidORCIDs(len(invalid))
	if len(valid) == 0 {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%w in %s (%d invalid)", collect.ErrNoORCIDs, name, len(invalid)))
		return
	}

	var warning string
	if cfg.Email == "" {
		h.logger.WarnContext(ctx, "no mailto email supplied; Crossref may throttle anonymous requests")
		warning = "no mailto email supplied"
		w.Header().Set(HeaderWarning, warning)
	}

	var runLog bytes.Buffer
	start := h.now()
	res, err := h.newRunner(cfg).Run(ctx, valid, collect.Options{
		Sleep:        cfg.Sleep,
		FixedSources: cfg.FixedSources,
		Log:          &runLog,
	})
	if err != nil {
		outcome := metrics.OutcomeFailed
		if errors.Is(err, context.Canceled) {
			outcome = metrics.OutcomeCancelled
		}
		h.metrics.ObserveRun(outcome, 0, h.now().Sub(start))
		h.logger.ErrorContext(ctx, "extraction failed", "file", name, "error", err)
		if page {
			rep := report.New(cfg, valid, invalid, nil)
			rep.Input = name
			h.writeResultPage(w, r, http.StatusInternalServerError, resultPage{
				Error:   err.Error(),
				Warning: warning,
				Log:     runLog.String(),
				Report:  h.encodeReport(r, rep),
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	rep := report.New(cfg, valid, invalid, res)
	rep.Input = name
	rep.Output = sheet.OutputName(h.now(), format)
	h.metrics.ObserveRun(metrics.OutcomeOK, len(res.Rows), res.Summary.Duration())

	var body bytes.Buffer
	if err := sheet.Write(&body, format, res.Rows, cfg.FixedSources); err != nil {
		h.logger.ErrorContext(ctx, "encoding output failed", "run_id", rep.RunID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.logger.InfoContext(ctx, "extraction finished",
		"run_id", rep.RunID,
		"file", name,
		"orcids", len(valid),
		"invalid", len(invalid),
		"rows", len(res.Rows),
		"duration_ms", res.Summary.Duration().Milliseconds(),
	)

	hdr := w.Header()
	hdr.Set(HeaderRunID, rep.RunID)
	hdr.Set(HeaderRowCount, strconv.Itoa(len(res.Rows)))
	if page {
		h.writeResultPage(w, r, http.StatusOK, resultPage{
			Warning:  warning,
			FileName: rep.Output,
			Rows:     len(res.Rows),
			Download: dataURL(format.ContentType(), body.Bytes()),
			Log:      runLog.String(),
			Report:   h.encodeReport(r, rep),
		})
		return
	}

	hdr.Set("Content-Type", format.ContentType())
	hdr.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.Output))
	hdr.Set("Content-Length", strconv.Itoa(body.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = body.WriteTo(w)
}

// encodeReport renders rep as YAML for the result page.
func (h *Handler) encodeReport(r *http.Request, rep *report.Report) string {
	var buf bytes.Buffer
	if err := rep.Encode(&buf); err != nil {
		h.logger.ErrorContext(r.Context(), "encoding run report", "run_id", rep.RunID, "error", err)
		return ""
	}
	return buf.String()
}

// readUpload parses the multipart "file" field. On failure it writes the
// error response and returns ok=false.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*sheet.Input, string, bool) {
	if h.server.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.server.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit))
			return nil, "", false
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("parsing form: %w", err))
		return nil, "", false
	}

	file, fh, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return nil, "", false
	}
	defer file.Close()

	in, err := sheet.ReadORCIDs(file, fh.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, "", false
	}
	return in, fh.Filename, true
}

// settings merges the form fields over the handler defaults.
func (h *Handler) settings(r *http.Request) (types.ExtractionConfig, sheet.Format, error) {
	cfg := h.defaults
	cfg.FixedSources = append([]string(nil), h.defaults.FixedSources...)

	if v := strings.TrimSpace(r.FormValue("email")); v != "" {
		cfg.Email = v
	}
	if v := r.FormValue("sleep"); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return cfg, "", fmt.Errorf("%w: sleep %q is not a number of seconds", types.ErrInvalidConfig, v)
		}
		cfg.Sleep = time.Duration(secs * float64(time.Second))
	}
	if v := r.FormValue("rows"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, "", fmt.Errorf("%w: rows %q", types.ErrInvalidConfig, v)
		}
		cfg.EventDataRows = n
	}
	if v := r.FormValue("max_pages"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, "", fmt.Errorf("%w: max_pages %q", types.ErrInvalidConfig, v)
		}
		cfg.EventDataMaxPages = n
	}
	if r.MultipartForm != nil {
		if vals, ok := r.MultipartForm.Value["sources"]; ok {
			cfg.FixedSources = types.SplitSources(vals)
		}
	}

	format := sheet.FormatXLSX
	if v := r.FormValue("format"); v != "" {
		f, err := sheet.ParseFormat(v)
		if err != nil {
			return cfg, "", err
		}
		format = f
	}

	if err := cfg.Validate(); err != nil {
		return cfg, "", err
	}
	return cfg, format, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
