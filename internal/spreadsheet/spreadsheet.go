// Package spreadsheet encodes the access log as an Office Open XML workbook.
// The layout is fixed: the first sheet holds a header row (Name, Email,
// Material) followed by one row per record in insertion order.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"trainingportal/internal/model"
)

// ContentType is the MIME type of the exported workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the sheet written by Write. Read accepts whichever sheet comes first.
const SheetName = "Sheet1"

// Header is the fixed column schema of the access log.
var Header = []string{"Name", "Email", "Material"}

// ErrMalformedLog is returned by Read when the workbook does not have the
// access log layout.
var ErrMalformedLog = errors.New("malformed access log")

// ErrUnencodable is returned by Write when a field cannot be stored in a cell
// without changing it: invalid UTF-8, or longer than a cell holds once escaped.
var ErrUnencodable = errors.New("value cannot be stored in a cell")

// Write encodes records as a workbook and writes it to w.
func Write(w io.Writer, records []model.AccessRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := make([]any, 0, len(Header))
		for _, v := range []string{rec.Name, rec.Email, rec.Material} {
			cv, err := cellValue(v)
			if err != nil {
				return fmt.Errorf("write row %d: %w", i+1, err)
			}
			row = append(row, cv)
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("encode workbook: %w", err)
	}
	return nil
}

// Read decodes a workbook produced by Write (or any spreadsheet with the same
// header). Blank rows are skipped and missing trailing cells read as "".
func Read(r io.Reader) ([]model.AccessRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLog, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformedLog)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLog, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: missing header row", ErrMalformedLog)
	}
	if !headerMatches(rows[0]) {
		return nil, fmt.Errorf("%w: unexpected header %q", ErrMalformedLog, rows[0])
	}

	records := make([]model.AccessRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		if len(row) > len(Header) {
			return nil, fmt.Errorf("%w: row %d has %d columns", ErrMalformedLog, i+2, len(row))
		}
		cells := make([]string, len(Header))
		copy(cells, row)
		records = append(records, model.AccessRecord{
			Name:     cells[0],
			Email:    cells[1],
			Material: cells[2],
		})
	}
	return records, nil
}

// Check reports whether rec can be written by Write and read back unchanged.
func Check(rec model.AccessRecord) error {
	for _, v := range []string{rec.Name, rec.Email, rec.Material} {
		if _, err := cellValue(v); err != nil {
			return err
		}
	}
	return nil
}

// cellValue escapes v so excelize reads it back unchanged. A literal "_x" is
// stored as "_x005F_x" so it is not taken for an escape sequence, and runes XML
// cannot carry are stored as _xHHHH_.
func cellValue(v string) (string, error) {
	if !utf8.ValidString(v) {
		return "", fmt.Errorf("%w: invalid UTF-8", ErrUnencodable)
	}

	var b strings.Builder
	b.Grow(len(v))
	for i, r := range v {
		switch {
		case r == '_' && strings.HasPrefix(v[i:], "_x"):
			b.WriteString("_x005F")
		case !xmlChar(r):
			fmt.Fprintf(&b, "_x%04X_", r)
			continue
		}
		b.WriteRune(r)
	}

	out := b.String()
	if n := utf8.RuneCountInString(out); n > excelize.TotalCellChars {
		return "", fmt.Errorf("%w: %d characters, a cell holds %d", ErrUnencodable, n, excelize.TotalCellChars)
	}
	return out, nil
}

// xmlChar reports whether r is allowed in XML 1.0 character data.
func xmlChar(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r < 0x20:
		return false
	case r >= 0xD800 && r <= 0xDFFF:
		return false
	case r == 0xFFFE || r == 0xFFFF:
		return false
	}
	return r <= utf8.MaxRune
}

func headerMatches(row []string) bool {
	if len(row) != len(Header) {
		return false
	}
	for i, h := range Header {
		if row[i] != h {
			return false
		}
	}
	return true
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
