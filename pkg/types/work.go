// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// MentionColumnPrefix prefixes every per-source mention column name.
const MentionColumnPrefix = "eventdata_source_"

// CrossrefMetrics holds the bibliometric fields taken from a Crossref work
// record. Nil pointers mean Crossref did not report the value (or the lookup
// failed) and are exported as empty cells.
type CrossrefMetrics struct {
	IsReferencedByCount *int    `json:"crossref_is_referenced_by_count" yaml:"crossref_is_referenced_by_count"`
	ReferencesCount     *int    `json:"crossref_references_count" yaml:"crossref_references_count"`
	ContainerTitle      *string `json:"crossref_container_title" yaml:"crossref_container_title"`
	Publisher           *string `json:"crossref_publisher" yaml:"crossref_publisher"`
	IssuedYear          *int    `json:"crossref_issued_year" yaml:"crossref_issued_year"`
}

// WorkRow is one scholarly work in the consolidated output, keyed by DOI.
type WorkRow struct {
	// ORCID is the normalized researcher identifier the work was listed under.
	ORCID string `json:"orcid" yaml:"orcid"`

	// PutCode is the ORCID record-local identifier of the work.
	PutCode int64 `json:"put_code" yaml:"put_code"`

	Title                string `json:"title" yaml:"title"`
	Type                 string `json:"type" yaml:"type"`
	PublicationYearORCID string `json:"publication_year_orcid" yaml:"publication_year_orcid"`
	SourceORCID          string `json:"source_orcid" yaml:"source_orcid"`

	// DOI is empty when no identifier could be extracted from the ORCID record.
	DOI string `json:"doi" yaml:"doi"`

	CrossrefMetrics `yaml:",inline"`

	// Mentions maps an Event Data source name (without prefix) to its event
	// count. Fixed sources are always present.
	Mentions map[string]int `json:"mentions" yaml:"mentions"`
}

// MentionColumn returns the output column name for a mention source.
func MentionColumn(source string) string {
	return MentionColumnPrefix + source
}
