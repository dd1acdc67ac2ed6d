// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sheet

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/orcid-metrics/pkg/types"
)

func intp(n int) *int       { return &n }
func strp(s string) *string { return &s }

var testFixed = []string{"twitter", "news"}

func sampleRows() []types.WorkRow {
	return []types.WorkRow{
		{
			ORCID: "0000-0002-1825-0097", PutCode: 1, Title: "Paper, one", Type: "journal-article",
			PublicationYearORCID: "2020", SourceORCID: "Crossref", DOI: "10.1000/one",
			CrossrefMetrics: types.CrossrefMetrics{
				IsReferencedByCount: intp(12),
				ReferencesCount:     intp(40),
				ContainerTitle:      strp("Journal of Tests"),
				Publisher:           strp("Test Press"),
				IssuedYear:          intp(2020),
			},
			Mentions: map[string]int{"twitter": 5, "news": 0, "wikipedia": 1},
		},
		{
			ORCID: "0000-0002-1825-0097", PutCode: 2, Title: "Dataset", Type: "data-set",
			SourceORCID: "Zenodo",
			Mentions:    map[string]int{"twitter": 0, "news": 0},
		},
	}
}

// workbook builds an in-memory .xlsx with the given rows on its first sheet.
func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", ref, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadORCIDsXLSX(t *testing.T) {
	buf := workbook(t, [][]any{
		{"Name", "ORCID", "Dept"},
		{"Ada", "0000-0002-1825-0097", "Math"},
		{"Bob", "0000000151093700", "CS"},
		{"Cy"},
	})

	in, err := ReadORCIDs(buf, "researchers.XLSX")
	require.NoError(t, err)

	assert.Equal(t, "ORCID", in.Column)
	assert.Equal(t, []string{"Name", "ORCID", "Dept"}, in.Header)
	assert.Equal(t, []string{"0000-0002-1825-0097", "0000000151093700", ""}, in.Values)
	assert.Len(t, in.Preview, 3)
}

func TestReadORCIDsFallsBackToFirstColumn(t *testing.T) {
	buf := workbook(t, [][]any{
		{"researcher id", "name"},
		{"0000-0002-1825-0097", "Ada"},
	})

	in, err := ReadORCIDs(buf, "ids.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "researcher id", in.Column)
	assert.Equal(t, []string{"0000-0002-1825-0097"}, in.Values)
}

func TestReadORCIDsCSV(t *testing.T) {
	data := "\xef\xbb\xbfname,orcid\nAda, 0000-0002-1825-0097\nBob\n"

	in, err := ReadORCIDs(strings.NewReader(data), "ids.csv")
	require.NoError(t, err)
	assert.Equal(t, "orcid", in.Column)
	assert.Equal(t, []string{"0000-0002-1825-0097", ""}, in.Values)
}

func TestReadORCIDsPreviewCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("orcid\n")
	for i := 0; i < PreviewRows+5; i++ {
		b.WriteString("0000-0002-1825-0097\n")
	}

	in, err := ReadORCIDs(strings.NewReader(b.String()), "ids.csv")
	require.NoError(t, err)
	assert.Len(t, in.Values, PreviewRows+5)
	assert.Len(t, in.Preview, PreviewRows)
}

func TestReadORCIDsErrors(t *testing.T) {
	_, err := ReadORCIDs(strings.NewReader("orcid\n"), "ids.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ReadORCIDs(strings.NewReader(""), "ids.csv")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = ReadORCIDs(strings.NewReader("not a zip"), "ids.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening workbook")
}

func TestColumns(t *testing.T) {
	rows := []types.WorkRow{
		{Mentions: map[string]int{"twitter": 1, "zenodo": 2}},
		{Mentions: map[string]int{"news": 0, "hypothesis": 1}},
	}
	cols := Columns(rows, []string{"twitter", "news", "twitter"})

	assert.Equal(t, BaseColumns, cols[:len(BaseColumns)])
	assert.Equal(t, []string{
		"eventdata_source_twitter",
		"eventdata_source_news",
		"eventdata_source_hypothesis",
		"eventdata_source_zenodo",
	}, cols[len(BaseColumns):])
}

func TestRecord(t *testing.T) {
	rows := sampleRows()
	cols := Columns(rows, testFixed)

	rec := Record(rows[1], cols)
	assert.Equal(t, "0000-0002-1825-0097", rec[0])
	assert.Equal(t, int64(2), rec[1])
	assert.Nil(t, rec[4], "missing ORCID year")
	assert.Nil(t, rec[6], "missing DOI")
	assert.Nil(t, rec[7], "missing citation count")
	assert.Equal(t, 0, rec[len(rec)-1], "unseen extra source")

	rec = Record(rows[0], cols)
	assert.Equal(t, 12, rec[7])
	assert.Equal(t, "Journal of Tests", rec[9])
	assert.Equal(t, 1, rec[len(rec)-1])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleRows(), testFixed))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, Columns(sampleRows(), testFixed), got[0])
	assert.Equal(t, []string{
		"0000-0002-1825-0097", "1", "Paper, one", "journal-article", "2020", "Crossref", "10.1000/one",
		"12", "40", "Journal of Tests", "Test Press", "2020", "5", "0", "1",
	}, got[1])
	assert.Equal(t, "", got[2][6], "empty DOI cell")
	assert.Equal(t, "0", got[2][len(got[2])-1])
}

func TestWriteXLSXNoRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil, testFixed))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0], len(BaseColumns)+len(testFixed))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows(), testFixed))

	g := goldie.New(t)
	g.Assert(t, t.Name(), buf.Bytes())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleRows(), testFixed))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)

	assert.Equal(t, "10.1000/one", got[0]["doi"])
	assert.Equal(t, float64(12), got[0]["crossref_is_referenced_by_count"])
	assert.Equal(t, float64(1), got[0]["eventdata_source_wikipedia"])
	assert.Nil(t, got[1]["doi"])
	assert.Contains(t, got[1], "crossref_publisher")
	assert.Nil(t, got[1]["crossref_publisher"])
}

func TestWriteJSONKeepsColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleRows(), testFixed))

	dec := json.NewDecoder(&buf)
	_, err := dec.Token() // [
	require.NoError(t, err)
	_, err = dec.Token() // {
	require.NoError(t, err)

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		require.NoError(t, err)
		keys = append(keys, tok.(string))
		var skip any
		require.NoError(t, dec.Decode(&skip))
	}
	assert.Equal(t, Columns(sampleRows(), testFixed), keys)
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"xlsx", "CSV", "json"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(strings.ToLower(s)), f)
	}
	_, err := ParseFormat("parquet")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOutputName(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "orcid_crossref_eventdata_20260304_050607.xlsx", OutputName(ts, FormatXLSX))
	assert.Equal(t, "orcid_crossref_eventdata_20260304_050607.csv", OutputName(ts, FormatCSV))
}

func TestFormatContentType(t *testing.T) {
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FormatXLSX.ContentType())
	assert.Equal(t, "text/csv; charset=utf-8", FormatCSV.ContentType())
	assert.Equal(t, "application/json", FormatJSON.ContentType())
}
