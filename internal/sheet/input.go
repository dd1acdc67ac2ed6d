// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sheet reads ORCID lists from spreadsheets and writes the
// consolidated works table.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ORCIDColumn is the preferred header of the input column (case-insensitive).
const ORCIDColumn = "orcid"

var (
	// ErrEmptyInput is returned for a file without any rows.
	ErrEmptyInput = errors.New("input sheet has no rows")
	// ErrUnsupportedFormat is returned for extensions other than .xlsx and .csv.
	ErrUnsupportedFormat = errors.New("unsupported input format")
)

// Input is the parsed ORCID spreadsheet.
type Input struct {
	// Header is the first row of the sheet.
	Header []string
	// Column is the header of the column the ORCIDs were read from.
	Column string
	// Values are the raw cells of that column, header excluded.
	Values []string
	// Preview holds up to PreviewRows data rows for display.
	Preview [][]string
}

// PreviewRows bounds Input.Preview.
const PreviewRows = 20

// ReadORCIDs parses an uploaded spreadsheet. The format is chosen from the
// file name extension (.xlsx or .csv). The ORCID column is the one headed
// "orcid" in any letter case, or the first column when there is none.
func ReadORCIDs(r io.Reader, name string) (*Input, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		rows, err = readXLSX(r)
	case ".csv":
		rows, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q (want .xlsx or .csv)", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return nil, err
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) (*Input, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyInput
	}

	header := rows[0]
	col := 0
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), ORCIDColumn) {
			col = i
			break
		}
	}

	in := &Input{Header: header, Column: header[col]}
	for i, row := range rows[1:] {
		if i < PreviewRows {
			in.Preview = append(in.Preview, row)
		}
		if col < len(row) {
			in.Values = append(in.Values, row[col])
		} else {
			in.Values = append(in.Values, "")
		}
	}
	return in, nil
}

// readXLSX returns the rows of the workbook's first sheet.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyInput
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	return rows, nil
}
