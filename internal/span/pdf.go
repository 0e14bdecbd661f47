package span

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFExtractor handles PDF files. It reads rows with font information via
// the Go library first and falls back to pdftotext if available.
type PDFExtractor struct {
	FallbackPdftotext bool
}

func (p *PDFExtractor) Extract(r io.Reader, filename string) ([]TextUnit, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "vanban-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	units, err := extractPDFUnits(tmpPath)
	if err != nil && p.FallbackPdftotext {
		units, err = extractPdftotext(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf spans: %w", err)
	}
	return units, nil
}

func extractPDFUnits(path string) ([]TextUnit, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var units []TextUnit
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			if u, ok := rowUnit(row, i); ok {
				units = append(units, u)
			}
		}
	}
	return units, nil
}

// rowUnit joins the runs of one visual row into a single unit. The row
// counts as bold when bold-faced runs carry at least half of its
// non-space characters, so a bold lead with a plain trailing fragment is
// still treated as a bold line.
func rowUnit(row *pdflib.Row, page int) (TextUnit, bool) {
	var buf strings.Builder
	var boldLen, totalLen int
	font := ""
	for _, word := range row.Content {
		buf.WriteString(word.S)
		n := len(strings.TrimSpace(word.S))
		if n == 0 {
			continue
		}
		totalLen += n
		if boldFont(word.Font) {
			boldLen += n
		}
		if font == "" {
			font = word.Font
		}
	}
	content := Normalize(buf.String())
	if content == "" {
		return TextUnit{}, false
	}
	return TextUnit{
		Content: content,
		Bold:    totalLen > 0 && boldLen*2 >= totalLen,
		Font:    font,
		Page:    page,
	}, true
}

func extractPdftotext(path string) ([]TextUnit, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}

	// Form feed separates pages; no font information survives this path.
	var units []TextUnit
	for pageIdx, pageText := range strings.Split(string(out), "\f") {
		for _, line := range strings.Split(pageText, "\n") {
			content := Normalize(line)
			if content == "" {
				continue
			}
			units = append(units, TextUnit{Content: content, Page: pageIdx + 1})
		}
	}
	return units, nil
}
