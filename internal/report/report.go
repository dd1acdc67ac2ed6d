// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report records a YAML summary of one extraction run: the inputs,
// the ORCIDs rejected during validation, the row counts and the timing.
package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/orcid-metrics/internal/collect"
	"github.com/pdiddy/orcid-metrics/pkg/types"
)

// Report is the persisted record of a run.
type Report struct {
	RunID    string       `yaml:"run_id"`
	Input    string       `yaml:"input,omitempty"`
	Output   string       `yaml:"output,omitempty"`
	Settings Settings     `yaml:"settings"`
	ORCIDs   ORCIDSummary `yaml:"orcids"`
	Counts   Counts       `yaml:"counts"`
	Started  time.Time    `yaml:"started"`
	Finished time.Time    `yaml:"finished"`
	Duration string       `yaml:"duration"`
}

// Settings echoes the extraction parameters. The email is reduced to whether
// one was supplied.
type Settings struct {
	EmailSet          bool     `yaml:"email_set"`
	Sleep             string   `yaml:"sleep"`
	EventDataRows     int      `yaml:"eventdata_rows"`
	EventDataMaxPages int      `yaml:"eventdata_max_pages"`
	FixedSources      []string `yaml:"fixed_sources"`
}

// ORCIDSummary lists the identifiers after validation.
type ORCIDSummary struct {
	Valid   []string `yaml:"valid"`
	Invalid []string `yaml:"invalid,omitempty"`
	Failed  []string `yaml:"failed,omitempty"`
}

// Counts are the row and error tallies of the run.
type Counts struct {
	Rows            int `yaml:"rows"`
	WithDOI         int `yaml:"with_doi"`
	CrossrefErrors  int `yaml:"crossref_errors"`
	EventDataErrors int `yaml:"eventdata_errors"`
}

// New builds a report for a finished run with a fresh run ID.
func New(cfg types.ExtractionConfig, valid, invalid []string, res *collect.Result) *Report {
	r := &Report{
		RunID: uuid.NewString(),
		Settings: Settings{
			EmailSet:          cfg.Email != "",
			Sleep:             cfg.Sleep.String(),
			EventDataRows:     cfg.EventDataRows,
			EventDataMaxPages: cfg.EventDataMaxPages,
			FixedSources:      cfg.FixedSources,
		},
		ORCIDs: ORCIDSummary{Valid: valid, Invalid: invalid},
	}
	if res == nil {
		return r
	}

	s := res.Summary
	r.ORCIDs.Failed = s.FailedORCIDs
	r.Counts = Counts{
		Rows:            len(res.Rows),
		WithDOI:         s.WithDOI,
		CrossrefErrors:  s.CrossrefErrors,
		EventDataErrors: s.EventDataErrors,
	}
	r.Started = s.Started
	r.Finished = s.Finished
	r.Duration = s.Duration().Round(time.Millisecond).String()
	return r
}

// Encode writes r as YAML.
func (r *Report) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}

// Write saves r to path.
func (r *Report) Write(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
