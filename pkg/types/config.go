// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// HTTPConfig holds shared HTTP settings used by every upstream client.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "orcid-metrics/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries bounds the retries on HTTP 429 (0 selects the default).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// Default extraction settings.
const (
	DefaultSleep             = 250 * time.Millisecond
	DefaultEventDataRows     = 1000
	DefaultEventDataMaxPages = 50
	MaxSleep                 = 1500 * time.Millisecond
	MaxEventDataPages        = 200
)

// DefaultFixedSources lists the Event Data sources that always get a column,
// even when a work has no events from them.
var DefaultFixedSources = []string{
	"twitter", "news", "blogs", "reddit", "wikipedia", "facebook",
	"policy", "patent", "stackexchange", "youtube", "linkedin", "unknown",
}

// AllowedEventDataRows are the page sizes accepted for Event Data queries.
var AllowedEventDataRows = []int{250, 500, 1000}

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid extraction config")

// ExtractionConfig holds the settings for one extraction run.
type ExtractionConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is sent as the mailto courtesy parameter to Crossref and Event Data.
	Email string `json:"email" yaml:"email"`

	// Sleep is the pause inserted before every upstream request.
	Sleep time.Duration `json:"sleep" yaml:"sleep"`

	// EventDataRows is the Event Data page size (250, 500 or 1000).
	EventDataRows int `json:"eventdata_rows" yaml:"eventdata_rows"`

	// EventDataMaxPages caps the number of Event Data pages fetched per DOI.
	EventDataMaxPages int `json:"eventdata_max_pages" yaml:"eventdata_max_pages"`

	// FixedSources are the mention sources always present as columns.
	FixedSources []string `json:"fixed_sources" yaml:"fixed_sources"`
}

// DefaultExtractionConfig returns the settings used when nothing is configured.
func DefaultExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "orcid-metrics/0.1",
		},
		Sleep:             DefaultSleep,
		EventDataRows:     DefaultEventDataRows,
		EventDataMaxPages: DefaultEventDataMaxPages,
		FixedSources:      append([]string(nil), DefaultFixedSources...),
	}
}

// Validate checks the run settings. FixedSources are normalized with
// SplitSources.
func (c *ExtractionConfig) Validate() error {
	if c.Sleep < 0 || c.Sleep > MaxSleep {
		return fmt.Errorf("%w: sleep %v outside [0, %v]", ErrInvalidConfig, c.Sleep, MaxSleep)
	}
	if !allowedRows(c.EventDataRows) {
		return fmt.Errorf("%w: eventdata rows %d not one of %v", ErrInvalidConfig, c.EventDataRows, AllowedEventDataRows)
	}
	if c.EventDataMaxPages < 1 || c.EventDataMaxPages > MaxEventDataPages {
		return fmt.Errorf("%w: eventdata max pages %d outside [1, %d]", ErrInvalidConfig, c.EventDataMaxPages, MaxEventDataPages)
	}

	c.FixedSources = SplitSources(c.FixedSources)
	if len(c.FixedSources) == 0 {
		return fmt.Errorf("%w: select at least one fixed source", ErrInvalidConfig)
	}
	return nil
}

// SplitSources splits every value on commas, trims the names and drops
// blanks and repeats. Checkbox lists, comma lists and whitespace-split
// environment values all reduce to the same slice.
func SplitSources(vals []string) []string {
	var out []string
	seen := make(map[string]bool, len(vals))
	for _, v := range vals {
		for _, s := range strings.Split(v, ",") {
			s = strings.TrimSpace(s)
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func allowedRows(n int) bool {
	for _, r := range AllowedEventDataRows {
		if n == r {
			return true
		}
	}
	return false
}

// ServerConfig holds settings for the web front end.
type ServerConfig struct {
	// Addr is the listen address (e.g. ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// MaxUploadBytes caps the size of the uploaded ORCID spreadsheet.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`

	// ReadHeaderTimeout bounds how long the server waits for request headers.
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" yaml:"read_header_timeout"`
}

// DefaultServerConfig returns the web front end defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:              ":8080",
		MaxUploadBytes:    10 << 20,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
