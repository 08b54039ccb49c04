package manifest

import (
	"archive/zip"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"google.golang.org/api/sheets/v4"
)

func TestMakeTable(t *testing.T) {
	expected := Table{
		Header: []string{"Name", "G.Drive Link", "Layout Link", "Batch"},
		Records: [][]string{
			{"Alice Smith", "https://drive.google.com/drive/folders/abc", "https://example.com/alice.pdf", "71"},
			{"Bob Jones", "https://drive.google.com/file/d/xyz/view", "", "71"},
		},
	}

	var data = [][]any{
		{"Name", "G.Drive Link", "Layout Link", "Batch"},
		{"Alice Smith", "https://drive.google.com/drive/folders/abc", "https://example.com/alice.pdf", "71"},
		{" Bob Jones ", "https://drive.google.com/file/d/xyz/view", "", "71"},
	}

	table, err := MakeTable(data)
	if err != nil {
		t.Fatalf("Unexpected error returned from MakeTable (%v)", err)
	}

	if !reflect.DeepEqual(*table, expected) {
		t.Errorf("Incorrect table\n   expected: %v\n   got:      %v\n", expected, *table)
	}
}

func TestMakeTableWithOutOfOrderColumns(t *testing.T) {
	expected := Table{
		Header: []string{"Name", "G.Drive Link", "Layout Link", "Batch", "Notes"},
		Records: [][]string{
			{"Alice Smith", "https://drive.google.com/drive/folders/abc", "https://example.com/alice.pdf", "71", "-"},
		},
	}

	var data = [][]any{
		{"Batch", "Layout Link", "Notes", "G.Drive Link", "Name"},
		{"71", "https://example.com/alice.pdf", "-", "https://drive.google.com/drive/folders/abc", "Alice Smith"},
	}

	table, err := MakeTable(data)
	if err != nil {
		t.Fatalf("Unexpected error returned from MakeTable (%v)", err)
	}

	if !reflect.DeepEqual(*table, expected) {
		t.Errorf("Incorrect table\n   expected: %v\n   got:      %v\n", expected, *table)
	}
}

func TestMakeTableSkipsRowsWithoutName(t *testing.T) {
	var data = [][]any{
		{"Name", "Layout Link"},
		{"Alice", "a.pdf"},
		{"", "orphan.pdf"},
		{},
		{"Bob"},
	}

	table, err := MakeTable(data)
	if err != nil {
		t.Fatalf("Unexpected error returned from MakeTable (%v)", err)
	}

	expected := [][]string{{"Alice", "a.pdf"}, {"Bob", ""}}
	if !reflect.DeepEqual(table.Records, expected) {
		t.Errorf("Incorrect records\n   expected: %v\n   got:      %v\n", expected, table.Records)
	}
}

func TestMakeTableWithEmptySheet(t *testing.T) {
	if _, err := MakeTable([][]any{}); err == nil {
		t.Fatalf("Expected error return for empty sheet, got %v", err)
	}
}

func TestMakeTableWithoutHeaders(t *testing.T) {
	if _, err := MakeTable([][]any{{}}); err == nil {
		t.Fatalf("Expected error return for missing headers, got %v", err)
	}
}

func TestMakeTableWithMissingName(t *testing.T) {
	if _, err := MakeTable([][]any{{"Names", "Layout Link"}}); err == nil {
		t.Fatalf("Expected error return for missing 'name' column, got %v", err)
	}
}

func TestMakeTableWithDuplicateColumns(t *testing.T) {
	if _, err := MakeTable([][]any{{"Name", "Layout Link", "layout link"}}); err == nil {
		t.Fatalf("Expected error return for duplicate columns, got %v", err)
	}
}

func TestSubjects(t *testing.T) {
	table := Table{
		Header: []string{"Name", "G.Drive Link", "Layout Link"},
		Records: [][]string{
			{"Alice/Smith", "https://drive.google.com/drive/folders/abc", "https://example.com/alice.pdf"},
			{"Bob", "", ""},
		},
	}

	expected := []Subject{
		{Index: 1, Name: "Alice/Smith", DriveLink: "https://drive.google.com/drive/folders/abc", LayoutLink: "https://example.com/alice.pdf"},
		{Index: 2, Name: "Bob"},
	}

	if subjects := table.Subjects(); !reflect.DeepEqual(subjects, expected) {
		t.Errorf("Incorrect subjects\n   expected: %v\n   got:      %v\n", expected, subjects)
	}
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"Alice Smith":           "Alice Smith",
		"  Bob  ":               "Bob",
		"A/B\\C":                "A_B_C",
		`<x>:"y"|z?*`:           "_x___y__z__",
		"tab\there\nand\rthere": "tab_here_and_there",
	}

	for name, expected := range tests {
		if s := Sanitize(name); s != expected {
			t.Errorf("Incorrect sanitised name for %q\n   expected: %q\n   got:      %q", name, expected, s)
		}
	}
}

func TestFolder(t *testing.T) {
	subject := Subject{Index: 7, Name: " Jane: Doe "}

	if folder := subject.Folder(); folder != "7_Jane_ Doe" {
		t.Errorf("Incorrect folder name\n   expected: %q\n   got:      %q", "7_Jane_ Doe", folder)
	}
}

func TestWriteTSV(t *testing.T) {
	expected := `Name	G.Drive Link	Layout Link
Alice Smith	https://drive.google.com/drive/folders/abc	https://example.com/alice.pdf
Bob Jones		
`

	var f strings.Builder
	var data = sheets.ValueRange{
		Values: [][]any{
			{"Layout Link", "Name", "G.Drive Link"},
			{"https://example.com/alice.pdf", "Alice Smith", "https://drive.google.com/drive/folders/abc"},
			{"", "Bob Jones"},
		},
	}

	table, err := FromValueRange(&data)
	if err != nil {
		t.Fatalf("Unexpected error returned from FromValueRange (%v)", err)
	}

	if err := table.WriteTSV(&f); err != nil {
		t.Fatalf("Unexpected error returned from WriteTSV (%v)", err)
	}

	if f.String() != expected {
		t.Errorf("Incorrect TSV\n   expected: %s\n   got:      %s\n", expected, f.String())
	}
}

func TestLoadTSV(t *testing.T) {
	file := filepath.Join(t.TempDir(), "manifest.tsv")
	content := "Name\tLayout Link\nAlice\thttps://example.com/a.pdf\n\t\nBob\n"

	if err := os.WriteFile(file, []byte(content), 0660); err != nil {
		t.Fatalf("Error writing %v (%v)", file, err)
	}

	table, err := Load(file)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	expected := []Subject{
		{Index: 1, Name: "Alice", LayoutLink: "https://example.com/a.pdf"},
		{Index: 2, Name: "Bob"},
	}

	if subjects := table.Subjects(); !reflect.DeepEqual(subjects, expected) {
		t.Errorf("Incorrect subjects\n   expected: %v\n   got:      %v\n", expected, subjects)
	}
}

func TestLoadCSV(t *testing.T) {
	file := filepath.Join(t.TempDir(), "manifest.csv")
	content := "Name,G.Drive Link\n\"Smith, Alice\",https://drive.google.com/drive/folders/abc\n"

	if err := os.WriteFile(file, []byte(content), 0660); err != nil {
		t.Fatalf("Error writing %v (%v)", file, err)
	}

	table, err := Load(file)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	expected := []Subject{
		{Index: 1, Name: "Smith, Alice", DriveLink: "https://drive.google.com/drive/folders/abc"},
	}

	if subjects := table.Subjects(); !reflect.DeepEqual(subjects, expected) {
		t.Errorf("Incorrect subjects\n   expected: %v\n   got:      %v\n", expected, subjects)
	}
}

func TestLoadXLSX(t *testing.T) {
	file := filepath.Join(t.TempDir(), "BATCH 71.xlsx")

	worksheet := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<sheetData>
  <row r="1">
    <c r="A1" t="s"><v>0</v></c>
    <c r="B1" t="s"><v>1</v></c>
    <c r="C1" t="s"><v>2</v></c>
  </row>
  <row r="2">
    <c r="A2" t="s"><v>3</v></c>
    <c r="B2" t="s"><v>4</v></c>
    <c r="C2" t="s"><v>5</v></c>
  </row>
</sheetData>
</worksheet>`

	shared := []string{
		"Name",
		"G.Drive Link",
		"Layout Link",
		"Alice Smith",
		"https://drive.google.com/drive/folders/abc",
		"https://example.com/alice.pdf",
	}

	writeXLSX(t, file, worksheet, shared)

	table, err := Load(file)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	expected := []Subject{
		{Index: 1, Name: "Alice Smith", DriveLink: "https://drive.google.com/drive/folders/abc", LayoutLink: "https://example.com/alice.pdf"},
	}

	if subjects := table.Subjects(); !reflect.DeepEqual(subjects, expected) {
		t.Errorf("Incorrect subjects\n   expected: %v\n   got:      %v\n", expected, subjects)
	}
}

func writeXLSX(t *testing.T, file string, worksheet string, shared []string) {
	t.Helper()

	f, err := os.Create(file)
	if err != nil {
		t.Fatalf("Error creating %v (%v)", file, err)
	}

	defer f.Close()

	sst := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">`
	for _, s := range shared {
		sst += "\n  <si><t>" + s + "</t></si>"
	}
	sst += "\n</sst>"

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>
  <Override PartName="/xl/worksheets/sheet1.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/>
  <Override PartName="/xl/sharedStrings.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml"/>
</Types>`},
		{"_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="xl/workbook.xml"/>
</Relationships>`},
		{"xl/_rels/workbook.xml.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings" Target="sharedStrings.xml"/>
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
</Relationships>`},
		{"xl/workbook.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets>
  <sheet name="Sheet1" sheetId="1" r:id="rId2"/>
</sheets>
</workbook>`},
		{"xl/sharedStrings.xml", sst},
		{"xl/worksheets/sheet1.xml", worksheet},
	}

	zw := zip.NewWriter(f)
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			t.Fatalf("Error creating %v (%v)", part.name, err)
		}

		if _, err := w.Write([]byte(part.content)); err != nil {
			t.Fatalf("Error writing %v (%v)", part.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("Error closing %v (%v)", file, err)
	}
}
