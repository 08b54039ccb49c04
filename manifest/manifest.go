// Package manifest reads the list of subjects to be endorsed from a spreadsheet, either a
// Google Sheets range, a local workbook or a TSV/CSV export.
package manifest

import (
	"fmt"
	"regexp"
	"strings"
)

// Subject is one row of the manifest.
type Subject struct {
	Index      int
	Name       string
	DriveLink  string
	LayoutLink string
}

// Table is a normalised manifest: the known columns first, in a fixed order, followed by any
// other columns in their original order.
type Table struct {
	Header  []string
	Records [][]string
}

const (
	name   = "name"
	drive  = "g.drivelink"
	layout = "layoutlink"
)

var aliases = map[string]string{
	"gdrivelink": drive,
	"drivelink":  drive,
	"layout":     layout,
}

var unsafe = regexp.MustCompile(`[<>:"/\\|?*\t\n\r]`)

// Sanitize replaces characters that are not allowed in folder names with underscores and
// trims surrounding whitespace.
func Sanitize(name string) string {
	return strings.TrimSpace(unsafe.ReplaceAllString(name, "_"))
}

// Folder returns the subject's working folder name, <index>_<sanitised name>.
func (s Subject) Folder() string {
	return fmt.Sprintf("%d_%s", s.Index, Sanitize(s.Name))
}

// MakeTable builds a table from spreadsheet rows. The first row is the header. Rows without
// a name are skipped.
func MakeTable(rows [][]any) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("Empty sheet")
	}

	// .. build index
	index := map[string]int{}
	for i, v := range rows[0] {
		k := key(v)
		if k == "" {
			continue
		}

		if _, ok := index[k]; ok {
			return nil, fmt.Errorf("Duplicate column name '%v'", v)
		}

		index[k] = i
	}

	if len(index) == 0 {
		return nil, fmt.Errorf("Missing/invalid header row")
	}

	if _, ok := index[name]; !ok {
		return nil, fmt.Errorf("Missing 'name' column")
	}

	// ... header
	columns := []int{index[name]}
	for _, k := range []string{drive, layout} {
		if ix, ok := index[k]; ok {
			columns = append(columns, ix)
		}
	}

	for i, v := range rows[0] {
		if k := key(v); k != "" && k != name && k != drive && k != layout {
			columns = append(columns, i)
		}
	}

	header := []string{}
	for _, ix := range columns {
		header = append(header, clean(cell(rows[0], ix)))
	}

	// ... records
	records := [][]string{}
	for _, row := range rows[1:] {
		if clean(cell(row, index[name])) == "" {
			continue
		}

		record := []string{}
		for _, ix := range columns {
			record = append(record, clean(cell(row, ix)))
		}

		records = append(records, record)
	}

	return &Table{
		Header:  header,
		Records: records,
	}, nil
}

// Subjects returns the table rows as subjects, numbered from 1.
func (t *Table) Subjects() []Subject {
	index := map[string]int{}
	for i, h := range t.Header {
		index[key(h)] = i
	}

	subjects := []Subject{}
	for i, record := range t.Records {
		subject := Subject{
			Index: i + 1,
		}

		if ix, ok := index[name]; ok && ix < len(record) {
			subject.Name = record[ix]
		}

		if ix, ok := index[drive]; ok && ix < len(record) {
			subject.DriveLink = record[ix]
		}

		if ix, ok := index[layout]; ok && ix < len(record) {
			subject.LayoutLink = record[ix]
		}

		subjects = append(subjects, subject)
	}

	return subjects
}

func key(v any) string {
	k := normalise(fmt.Sprintf("%v", v))
	if alias, ok := aliases[k]; ok {
		return alias
	}

	return k
}

func cell(row []any, ix int) string {
	if ix < 0 || ix >= len(row) || row[ix] == nil {
		return ""
	}

	return fmt.Sprintf("%v", row[ix])
}

func normalise(v string) string {
	return strings.ToLower(strings.ReplaceAll(v, " ", ""))
}

func clean(v string) string {
	return strings.TrimSpace(v)
}
