// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractionConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ExtractionConfig)
		wantErr string
	}{
		{name: "defaults", mutate: func(*ExtractionConfig) {}},
		{name: "zero sleep", mutate: func(c *ExtractionConfig) { c.Sleep = 0 }},
		{name: "max sleep", mutate: func(c *ExtractionConfig) { c.Sleep = MaxSleep }},
		{name: "sleep too long", mutate: func(c *ExtractionConfig) { c.Sleep = 2 * time.Second }, wantErr: "sleep"},
		{name: "negative sleep", mutate: func(c *ExtractionConfig) { c.Sleep = -time.Millisecond }, wantErr: "sleep"},
		{name: "rows 250", mutate: func(c *ExtractionConfig) { c.EventDataRows = 250 }},
		{name: "rows 100", mutate: func(c *ExtractionConfig) { c.EventDataRows = 100 }, wantErr: "eventdata rows"},
		{name: "one page", mutate: func(c *ExtractionConfig) { c.EventDataMaxPages = 1 }},
		{name: "zero pages", mutate: func(c *ExtractionConfig) { c.EventDataMaxPages = 0 }, wantErr: "max pages"},
		{name: "too many pages", mutate: func(c *ExtractionConfig) { c.EventDataMaxPages = 201 }, wantErr: "max pages"},
		{name: "no sources", mutate: func(c *ExtractionConfig) { c.FixedSources = nil }, wantErr: "fixed source"},
		{name: "blank sources", mutate: func(c *ExtractionConfig) { c.FixedSources = []string{" ", ""} }, wantErr: "fixed source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultExtractionConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCleansSources(t *testing.T) {
	c := DefaultExtractionConfig()
	c.FixedSources = []string{" twitter", "news", "twitter", "", "wikipedia "}
	require.NoError(t, c.Validate())
	assert.Equal(t, []string{"twitter", "news", "wikipedia"}, c.FixedSources)
}

func TestSplitSources(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"repeated fields", []string{"", "twitter", "news"}, []string{"twitter", "news"}},
		{"comma list", []string{"twitter,news, wikipedia"}, []string{"twitter", "news", "wikipedia"}},
		{"whitespace split env", []string{"twitter,", "news"}, []string{"twitter", "news"}},
		{"repeats", []string{"twitter,twitter", "twitter"}, []string{"twitter"}},
		{"nothing", []string{" , "}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSources(tt.in))
		})
	}
}

func TestValidateSplitsCommaSources(t *testing.T) {
	c := DefaultExtractionConfig()
	c.FixedSources = []string{"twitter,news", "wikipedia"}
	require.NoError(t, c.Validate())
	assert.Equal(t, []string{"twitter", "news", "wikipedia"}, c.FixedSources)
}

func TestDefaultExtractionConfigCopiesSources(t *testing.T) {
	c := DefaultExtractionConfig()
	c.FixedSources[0] = "changed"
	assert.Equal(t, "twitter", DefaultFixedSources[0])
}

func TestMentionColumn(t *testing.T) {
	assert.Equal(t, "eventdata_source_twitter", MentionColumn("twitter"))
}
