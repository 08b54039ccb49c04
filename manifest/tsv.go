package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/tabula/xlsx"
	"google.golang.org/api/sheets/v4"
)

// FromValueRange builds a table from a Google Sheets range.
func FromValueRange(data *sheets.ValueRange) (*Table, error) {
	if data == nil {
		return nil, fmt.Errorf("Empty sheet")
	}

	return MakeTable(data.Values)
}

// Load reads a manifest file: an .xlsx workbook (first sheet), a TSV file or a CSV file.
func Load(file string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".xlsx":
		return loadXLSX(file)

	case ".csv":
		return loadDelimited(file, ',')

	default:
		return loadDelimited(file, '\t')
	}
}

// WriteTSV writes the table as tab separated values, header first.
func (t *Table) WriteTSV(f io.Writer) error {
	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(t.Header); err != nil {
		return err
	}

	for _, record := range t.Records {
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

func loadXLSX(file string) (*Table, error) {
	r, err := xlsx.Open(file)
	if err != nil {
		return nil, err
	}

	defer r.Close()

	sheet, err := r.Sheet(0)
	if err != nil {
		return nil, err
	}

	rows := [][]any{}
	for _, cells := range sheet.Rows {
		row := make([]any, len(cells))
		for i, c := range cells {
			row[i] = c.Value
		}

		rows = append(rows, row)
	}

	return MakeTable(rows)
}

func loadDelimited(file string, comma rune) (*Table, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([][]any, len(records))
	for i, record := range records {
		rows[i] = make([]any, len(record))
		for j, v := range record {
			rows[i][j] = v
		}
	}

	return MakeTable(rows)
}
