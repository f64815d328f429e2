// Package phonelist reads phone numbers for bulk runs from CSV, plain text
// and XLSX files. Values are returned as written; normalization happens in
// the bulk pipeline so invalid entries still show up in its report.
package phonelist

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Options selects where phones live in tabular files.
type Options struct {
	Column     int    // zero-based column holding the phone (CSV, XLSX)
	SkipHeader bool   // skip the first row (CSV, XLSX)
	Sheet      string // XLSX sheet name; default is the first sheet
}

// ReadFile reads phones from path, choosing the parser by extension:
// .csv, .xlsx, and anything else as one phone per line.
func ReadFile(ctx context.Context, path string, opts Options) ([]string, error) {
	if opts.Column < 0 {
		return nil, eris.Errorf("phonelist: negative column %d", opts.Column)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(ctx, path, opts)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "phonelist: open file")
		}
		defer f.Close() //nolint:errcheck
		return ReadCSV(ctx, f, opts)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "phonelist: open file")
		}
		defer f.Close() //nolint:errcheck
		return ReadText(ctx, f)
	}
}

// ReadText reads one phone per line. Blank lines and lines starting with
// '#' are skipped.
func ReadText(ctx context.Context, r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "phonelist: context cancelled")
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "phonelist: read lines")
	}
	return out, nil
}

// ReadCSV reads the phone column of a CSV document. The delimiter is ';'
// when the first line has semicolons but no commas (common in spreadsheets
// exported with a Brazilian locale), ',' otherwise. Rows too short to have
// the column and blank cells are skipped.
func ReadCSV(ctx context.Context, r io.Reader, opts Options) ([]string, error) {
	br := bufio.NewReader(r)
	first, _ := br.Peek(4096)
	if i := bytes.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	if bytes.IndexByte(first, ';') >= 0 && bytes.IndexByte(first, ',') < 0 {
		reader.Comma = ';'
	}

	var out []string
	for row := 0; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "phonelist: context cancelled")
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "phonelist: read csv row")
		}
		if row == 0 && opts.SkipHeader {
			continue
		}
		if v, ok := cellAt(record, opts.Column); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// ReadXLSX reads the phone column of one sheet of an XLSX workbook.
func ReadXLSX(ctx context.Context, path string, opts Options) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "phonelist: open xlsx")
	}

	sheet, err := sheetFor(f, opts.Sheet)
	if err != nil {
		return nil, err
	}

	var out []string
	for i, row := range sheet.Rows {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "phonelist: context cancelled")
		}
		if row == nil || (i == 0 && opts.SkipHeader) {
			continue
		}
		if v, ok := cellAt(rowValues(row), opts.Column); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func sheetFor(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("phonelist: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("phonelist: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

// rowValues returns the cell texts of row. Numeric cells use the stored
// value so long phone numbers are not rendered in a display format.
func rowValues(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		if cell.Type() == xlsx.CellTypeNumeric {
			cells[j] = cell.Value
			continue
		}
		cells[j] = cell.String()
	}
	return cells
}

func cellAt(record []string, col int) (string, bool) {
	if col >= len(record) {
		return "", false
	}
	v := strings.TrimSpace(record[col])
	return v, v != ""
}
