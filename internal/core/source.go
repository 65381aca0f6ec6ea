package core

// source.go reads logbook files into rows.
//
// CSV input tolerates the usual export damage: a UTF-8 BOM from Windows
// tools, invalid UTF-8 bytes, unbalanced quotes and rows with varying
// field counts. Spreadsheet input (.xlsx) is read from its first sheet.

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultMaxFileSize bounds a single logbook file.
const DefaultMaxFileSize = 50 << 20

var (
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
	zipMagic = []byte("PK\x03\x04")
)

// ReadRows reads every row of a logbook file. The file name only selects
// the decoder; content sniffing takes precedence for spreadsheets.
// A maxSize <= 0 uses DefaultMaxFileSize.
func ReadRows(name string, r io.Reader, maxSize int64) ([]SourceRow, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, maxSize)
	}

	var rows []SourceRow
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".xlsx" || bytes.HasPrefix(data, zipMagic) {
		rows, err = readXLSX(data)
	} else {
		rows, err = readCSV(data, ext == ".tsv")
	}
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if !isEmptyRow(row.Cells) {
			return rows, nil
		}
	}
	return nil, ErrEmptyFile
}

func readCSV(data []byte, tabs bool) ([]SourceRow, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	data = bytes.ToValidUTF8(data, []byte("\uFFFD"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	if tabs || sniffTabs(data) {
		r.Comma = '\t'
	}

	var rows []SourceRow
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		line, _ := r.FieldPos(0)
		rows = append(rows, SourceRow{Line: line, Cells: record})
	}
	return rows, nil
}

// sniffTabs reports whether the first line is tab separated rather than
// comma separated.
func sniffTabs(data []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	if !sc.Scan() {
		return false
	}
	first := sc.Text()
	return strings.Count(first, "\t") > strings.Count(first, ",")
}

func readXLSX(data []byte) ([]SourceRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("invalid spreadsheet: %w", err)
	}

	rows := make([]SourceRow, len(records))
	for i, rec := range records {
		for j, cell := range rec {
			rec[j] = strings.ToValidUTF8(cell, "\uFFFD")
		}
		rows[i] = SourceRow{Line: i + 1, Cells: rec}
	}
	return rows, nil
}
