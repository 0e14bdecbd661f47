package meta

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sidecarJSONL = `{"Số hiệu": "28/2023/CT-TTg", "Ngày ban hành": "26/10/2023", "Ngày hiệu lực": "26/10/2023"}

{"Số hiệu": "42/2025/NĐ-CP", "Ngày ban hành": "15/03/2025", "Ngày hiệu lực": "01/05/2025"}
`

func TestParseEffectiveJSONL(t *testing.T) {
	d, err := ParseEffectiveJSONL(strings.NewReader(sidecarJSONL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", d.Len())
	}

	issue, effective, ok := d.Lookup("42/2025/NĐ-CP")
	if !ok {
		t.Fatal("expected lookup hit")
	}
	if issue != "15/03/2025" || effective != "01/05/2025" {
		t.Errorf("expected dates 15/03/2025 and 01/05/2025, got %q and %q", issue, effective)
	}

	if _, _, ok := d.Lookup("99/2020/QĐ-TTg"); ok {
		t.Error("expected lookup miss for unknown number")
	}
}

func TestParseEffectiveJSONL_MalformedLine(t *testing.T) {
	_, err := ParseEffectiveJSONL(strings.NewReader(`{"Số hiệu": "a"}` + "\n" + `{broken`))
	if err == nil {
		t.Fatal("expected error for malformed line")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line number in error, got %v", err)
	}
}

func TestParseEffectiveCSV(t *testing.T) {
	csvData := "Số hiệu,Ngày ban hành,Ngày hiệu lực\n" +
		"28/2023/CT-TTg,26/10/2023,26/10/2023\n" +
		"24/2023/QH15,22/06/2023,01/07/2024\n"

	d, err := ParseEffectiveCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", d.Len())
	}

	_, effective, ok := d.Lookup("24/2023/QH15")
	if !ok || effective != "01/07/2024" {
		t.Errorf("expected effective date 01/07/2024, got %q (ok=%v)", effective, ok)
	}
}

func TestParseEffectiveCSV_MissingNumberColumn(t *testing.T) {
	_, err := ParseEffectiveCSV(strings.NewReader("Ngày ban hành,Ngày hiệu lực\n01/01/2024,02/02/2024\n"))
	if err == nil {
		t.Fatal("expected error for missing number column")
	}
}

func TestLoadEffectiveDates_Dispatch(t *testing.T) {
	dir := t.TempDir()

	jsonlPath := filepath.Join(dir, "dates.jsonl")
	if err := os.WriteFile(jsonlPath, []byte(sidecarJSONL), 0o644); err != nil {
		t.Fatal(err)
	}
	csvPath := filepath.Join(dir, "dates.csv")
	csvData := "Số hiệu,Ngày ban hành,Ngày hiệu lực\n28/2023/CT-TTg,26/10/2023,26/10/2023\n"
	if err := os.WriteFile(csvPath, []byte(csvData), 0o644); err != nil {
		t.Fatal(err)
	}

	fromJSONL, err := LoadEffectiveDates(jsonlPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fromJSONL.Len() != 2 {
		t.Errorf("expected 2 entries from jsonl, got %d", fromJSONL.Len())
	}

	fromCSV, err := LoadEffectiveDates(csvPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fromCSV.Len() != 1 {
		t.Errorf("expected 1 entry from csv, got %d", fromCSV.Len())
	}

	if _, err := LoadEffectiveDates(filepath.Join(dir, "missing.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEffectiveDates_Apply(t *testing.T) {
	d, err := ParseEffectiveJSONL(strings.NewReader(sidecarJSONL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	md := Metadata{Number: "28/2023/CT-TTg", IssueDate: "25/10/2023"}
	if !d.Apply(&md) {
		t.Fatal("expected registry hit")
	}
	if md.IssueDate != "26/10/2023" {
		t.Errorf("expected registry issue date to win, got %q", md.IssueDate)
	}
	if md.EffectiveDate != "26/10/2023" {
		t.Errorf("expected effective date %q, got %q", "26/10/2023", md.EffectiveDate)
	}

	md = Metadata{Number: "77/2019/TT-BCA", IssueDate: "01/01/2019"}
	if d.Apply(&md) {
		t.Error("expected registry miss")
	}
	if md.IssueDate != "01/01/2019" {
		t.Errorf("expected parsed date to survive a miss, got %q", md.IssueDate)
	}

	md = Metadata{}
	if d.Apply(&md) {
		t.Error("expected miss for empty number")
	}
}
