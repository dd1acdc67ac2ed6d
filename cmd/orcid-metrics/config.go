// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/orcid-metrics/internal/collect"
	"github.com/pdiddy/orcid-metrics/internal/metrics"
	"github.com/pdiddy/orcid-metrics/internal/secrets"
	"github.com/pdiddy/orcid-metrics/pkg/types"
)

// addExtractionFlags registers the run settings shared by extract and serve
// and binds them to viper keys, so each can also come from the config file
// or an ORCID_METRICS_* variable.
func addExtractionFlags(fs *pflag.FlagSet) {
	d := types.DefaultExtractionConfig()

	fs.String("email", "", "mailto address sent to Crossref and Event Data")
	fs.Duration("sleep", d.Sleep, "pause before every upstream request (max 1.5s)")
	fs.Int("rows", d.EventDataRows, "Event Data rows per page: 250, 500 or 1000")
	fs.Int("max-pages", d.EventDataMaxPages, "Event Data pages fetched per DOI (1-200)")
	fs.StringSlice("sources", d.FixedSources, "mention sources that always get a column")
	fs.Duration("timeout", d.Timeout, "HTTP request timeout")
	fs.String("user-agent", d.UserAgent, "User-Agent header for upstream requests")

	mustBind("email", fs.Lookup("email"))
	mustBind("sleep", fs.Lookup("sleep"))
	mustBind("eventdata_rows", fs.Lookup("rows"))
	mustBind("eventdata_max_pages", fs.Lookup("max-pages"))
	mustBind("fixed_sources", fs.Lookup("sources"))
	mustBind("timeout", fs.Lookup("timeout"))
	mustBind("user_agent", fs.Lookup("user-agent"))
}

func mustBind(key string, f *pflag.Flag) {
	if err := viper.BindPFlag(key, f); err != nil {
		panic(err)
	}
}

// extractionConfig assembles and validates the run settings. The email
// falls back to the mailto-email secret.
func extractionConfig() (types.ExtractionConfig, error) {
	cfg := types.ExtractionConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("timeout"),
			UserAgent: viper.GetString("user_agent"),
		},
		Email:             loadedSecrets.Or(secrets.KeyMailtoEmail, viper.GetString("email")),
		Sleep:             viper.GetDuration("sleep"),
		EventDataRows:     viper.GetInt("eventdata_rows"),
		EventDataMaxPages: viper.GetInt("eventdata_max_pages"),
		FixedSources:      viper.GetStringSlice("fixed_sources"),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newCollector builds a pipeline whose HTTP clients report to m.
func newCollector(cfg types.ExtractionConfig, m *metrics.Metrics) *collect.Collector {
	return collect.New(cfg, func(api string) *http.Client {
		return m.Client(api, cfg.Timeout)
	}, logger)
}
