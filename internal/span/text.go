package span

import (
	"bufio"
	"io"
)

// TextExtractor handles plain text files, one unit per line. Form feed
// characters advance the page counter so pre-extracted PDF dumps keep
// their page numbers.
type TextExtractor struct{}

func (p *TextExtractor) Extract(r io.Reader, filename string) ([]TextUnit, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var units []TextUnit
	page := 1
	for scanner.Scan() {
		line := scanner.Text()
		for i := 0; i < len(line); i++ {
			if line[i] == '\f' {
				page++
			}
		}
		// Blank lines stay in the stream; the classifier uses them as a
		// weak boundary signal.
		units = append(units, TextUnit{Content: Normalize(line), Page: page})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return units, nil
}
