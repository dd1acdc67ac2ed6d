// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sheet

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/orcid-metrics/internal/crossref"
	"github.com/pdiddy/orcid-metrics/pkg/types"
)

// SheetName is the name of the single worksheet in the exported workbook.
const SheetName = "dados"

// BaseColumns are the bibliographic columns, in output order.
var BaseColumns = []string{
	"orcid", "put_code", "title", "type", "publication_year_orcid", "source_orcid", "doi",
	"crossref_is_referenced_by_count", "crossref_references_count",
	"crossref_container_title", "crossref_publisher", "crossref_issued_year",
}

// Format selects the export encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatXLSX, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: output format %q (want xlsx, csv or json)", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

// OutputName returns the timestamped export file name for t.
func OutputName(t time.Time, f Format) string {
	return "orcid_crossref_eventdata_" + t.Format("20060102_150405") + "." + string(f)
}

// Columns returns the output header: the base columns, then one column per
// fixed source in the given order, then every other source seen in rows,
// sorted by name.
func Columns(rows []types.WorkRow, fixed []string) []string {
	cols := append([]string(nil), BaseColumns...)

	isFixed := make(map[string]bool, len(fixed))
	for _, s := range fixed {
		if isFixed[s] {
			continue
		}
		isFixed[s] = true
		cols = append(cols, types.MentionColumn(s))
	}

	seen := make(map[string]int)
	for _, r := range rows {
		for src := range r.Mentions {
			seen[src]++
		}
	}
	for _, src := range crossref.ExtraSources(seen, fixed) {
		cols = append(cols, types.MentionColumn(src))
	}
	return cols
}

// Record returns the cell values of r for cols. Unknown Crossref values are
// nil; a mention source the row never saw is 0.
func Record(r types.WorkRow, cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = cell(r, c)
	}
	return out
}

func cell(r types.WorkRow, col string) any {
	switch col {
	case "orcid":
		return r.ORCID
	case "put_code":
		return r.PutCode
	case "title":
		return r.Title
	case "type":
		return r.Type
	case "publication_year_orcid":
		return optString(r.PublicationYearORCID)
	case "source_orcid":
		return r.SourceORCID
	case "doi":
		return optString(r.DOI)
	case "crossref_is_referenced_by_count":
		return optInt(r.IsReferencedByCount)
	case "crossref_references_count":
		return optInt(r.ReferencesCount)
	case "crossref_container_title":
		if r.ContainerTitle == nil {
			return nil
		}
		return *r.ContainerTitle
	case "crossref_publisher":
		if r.Publisher == nil {
			return nil
		}
		return *r.Publisher
	case "crossref_issued_year":
		return optInt(r.IssuedYear)
	}
	if src, ok := strings.CutPrefix(col, types.MentionColumnPrefix); ok {
		return r.Mentions[src]
	}
	return nil
}

func optInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func optString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Write encodes rows in format f.
func Write(w io.Writer, f Format, rows []types.WorkRow, fixed []string) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, rows, fixed)
	case FormatJSON:
		return WriteJSON(w, rows, fixed)
	default:
		return WriteXLSX(w, rows, fixed)
	}
}

// WriteXLSX writes a single-sheet workbook named SheetName.
func WriteXLSX(w io.Writer, rows []types.WorkRow, fixed []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("creating stream writer: %w", err)
	}

	cols := Columns(rows, fixed)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(ref, Record(r, cols)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// WriteCSV writes the table as CSV with a header row. Nil cells are empty.
func WriteCSV(w io.Writer, rows []types.WorkRow, fixed []string) error {
	cols := Columns(rows, fixed)
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	rec := make([]string, len(cols))
	for _, r := range rows {
		for i, v := range Record(r, cols) {
			rec[i] = text(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the table as an indented array of flat objects whose
// keys follow the column order of the other formats.
func WriteJSON(w io.Writer, rows []types.WorkRow, fixed []string) error {
	cols := Columns(rows, fixed)
	out := make([]orderedRecord, len(rows))
	for i, r := range rows {
		out[i] = orderedRecord{cols: cols, vals: Record(r, cols)}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// orderedRecord marshals as a JSON object with keys in cols order.
type orderedRecord struct {
	cols []string
	vals []any
}

func (o orderedRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range o.cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(o.vals[i])
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", c, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}
