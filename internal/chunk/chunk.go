// Package chunk flattens parsed documents into self-contained
// retrieval units and re-splits the ones too large to embed well.
package chunk

import (
	"github.com/google/uuid"

	"github.com/ngocdv/vanban/internal/meta"
)

// Chunk is one retrieval unit. Content carries the joined titles of
// every node above the emitting one so the text stays meaningful on
// its own; Location is the citation path ("Chương I, Mục 1, Khoản a")
// pointing a reader back into the document.
type Chunk struct {
	ID             string `json:"id"`
	Source         string `json:"source"`
	Location       string `json:"location"`
	Content        string `json:"content"`
	IssueDate      string `json:"issue_date"`
	EffectiveDate  string `json:"effective_date"`
	Signatory      string `json:"signatory"`
	SignatoryTitle string `json:"signatory_position"`
}

func newChunk(md meta.Metadata, location, content string) Chunk {
	return Chunk{
		ID:             newID(),
		Source:         md.SourceFile,
		Location:       location,
		Content:        content,
		IssueDate:      md.IssueDate,
		EffectiveDate:  md.EffectiveDate,
		Signatory:      md.Signatory,
		SignatoryTitle: md.SignatoryTitle,
	}
}

func newID() string {
	return uuid.New().String()
}
