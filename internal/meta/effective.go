package meta

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// EffectiveDates is the registry of issue and effective dates keyed by
// document number, loaded from the sidecar file the portal crawler
// produces. Registry dates are authoritative and replace dates parsed
// from the document body.
type EffectiveDates struct {
	byNumber map[string]effectiveEntry
}

type effectiveEntry struct {
	issueDate     string
	effectiveDate string
}

// sidecarRecord mirrors one JSONL line of the crawler output. Field
// names are the portal's Vietnamese column headers.
type sidecarRecord struct {
	Number        string `json:"Số hiệu"`
	IssueDate     string `json:"Ngày ban hành"`
	EffectiveDate string `json:"Ngày hiệu lực"`
}

// LoadEffectiveDates reads a registry sidecar, dispatching on the file
// extension: .csv is parsed as CSV, anything else as JSONL.
func LoadEffectiveDates(path string) (*EffectiveDates, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open effective date registry: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ParseEffectiveCSV(f)
	}
	return ParseEffectiveJSONL(f)
}

// ParseEffectiveJSONL reads one JSON record per line. Blank lines are
// skipped; a malformed line fails the whole load.
func ParseEffectiveJSONL(r io.Reader) (*EffectiveDates, error) {
	d := &EffectiveDates{byNumber: make(map[string]effectiveEntry)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec sidecarRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("effective date registry line %d: %w", lineNo, err)
		}
		d.add(rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read effective date registry: %w", err)
	}
	return d, nil
}

// ParseEffectiveCSV reads a headed CSV with the same column names as
// the JSONL form.
func ParseEffectiveCSV(r io.Reader) (*EffectiveDates, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("effective date registry header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	numberCol, ok := col["Số hiệu"]
	if !ok {
		return nil, fmt.Errorf("effective date registry: missing column %q", "Số hiệu")
	}
	issueCol, hasIssue := col["Ngày ban hành"]
	effectiveCol, hasEffective := col["Ngày hiệu lực"]

	d := &EffectiveDates{byNumber: make(map[string]effectiveEntry)}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("effective date registry: %w", err)
		}
		rec := sidecarRecord{Number: field(row, numberCol)}
		if hasIssue {
			rec.IssueDate = field(row, issueCol)
		}
		if hasEffective {
			rec.EffectiveDate = field(row, effectiveCol)
		}
		d.add(rec)
	}
	return d, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (d *EffectiveDates) add(rec sidecarRecord) {
	number := strings.TrimSpace(rec.Number)
	if number == "" {
		return
	}
	d.byNumber[number] = effectiveEntry{
		issueDate:     strings.TrimSpace(rec.IssueDate),
		effectiveDate: strings.TrimSpace(rec.EffectiveDate),
	}
}

// Len reports how many numbers the registry covers.
func (d *EffectiveDates) Len() int {
	return len(d.byNumber)
}

// Lookup returns the registry dates for a document number.
func (d *EffectiveDates) Lookup(number string) (issueDate, effectiveDate string, ok bool) {
	e, ok := d.byNumber[number]
	if !ok {
		return "", "", false
	}
	return e.issueDate, e.effectiveDate, true
}

// Apply overwrites the metadata dates with the registry entry for its
// number, when one exists. Empty registry fields leave the parsed
// values in place.
func (d *EffectiveDates) Apply(md *Metadata) bool {
	if md.Number == "" {
		return false
	}
	e, ok := d.byNumber[md.Number]
	if !ok {
		return false
	}
	if e.issueDate != "" {
		md.IssueDate = e.issueDate
	}
	if e.effectiveDate != "" {
		md.EffectiveDate = e.effectiveDate
	}
	return true
}
