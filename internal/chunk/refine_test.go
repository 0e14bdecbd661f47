package chunk

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestRefine_KeepsShortChunks(t *testing.T) {
	chunks := []Chunk{
		{ID: "keep-1", Location: "Chương I", Content: "Nội dung ngắn."},
	}

	refined := Refine(chunks, 0, nil)
	if len(refined) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(refined))
	}
	if refined[0].ID != "keep-1" {
		t.Errorf("expected ID %q preserved, got %q", "keep-1", refined[0].ID)
	}
	if refined[0].Location != "Chương I" {
		t.Errorf("expected location %q, got %q", "Chương I", refined[0].Location)
	}
}

func TestRefine_SplitsOversized(t *testing.T) {
	sentence := "Cơ quan nhà nước thực hiện nghiêm quy định này."
	content := strings.TrimSpace(strings.Repeat(sentence+" ", 6))
	parent := Chunk{
		ID:             "parent",
		Source:         "chi-thi-05.pdf",
		Location:       "Chương I, Khoản a",
		Content:        content,
		IssueDate:      "01/03/2024",
		EffectiveDate:  "15/03/2024",
		Signatory:      "Phạm Minh Chính",
		SignatoryTitle: "THỦ TƯỚNG",
	}

	limit := 120
	refined := Refine([]Chunk{parent}, limit, nil)
	if len(refined) < 2 {
		t.Fatalf("expected a split, got %d chunks", len(refined))
	}

	for i, c := range refined {
		wantLocation := fmt.Sprintf("Chương I, Khoản a (phần %d)", i+1)
		if c.Location != wantLocation {
			t.Errorf("chunk %d: expected location %q, got %q", i, wantLocation, c.Location)
		}
		if c.ID == "" || c.ID == "parent" {
			t.Errorf("chunk %d: expected a fresh ID, got %q", i, c.ID)
		}
		if c.Source != parent.Source || c.IssueDate != parent.IssueDate || c.Signatory != parent.Signatory {
			t.Errorf("chunk %d: metadata not inherited: %+v", i, c)
		}
		if n := utf8.RuneCountInString(c.Content); n > limit {
			t.Errorf("chunk %d: %d runes exceeds limit %d", i, n, limit)
		}
	}

	joined := ""
	for _, c := range refined {
		if joined != "" {
			joined += " "
		}
		joined += c.Content
	}
	if joined != content {
		t.Errorf("expected parts to reassemble the content, got %q", joined)
	}
}

func TestRefine_UnsplittableChunkKeptWhole(t *testing.T) {
	content := strings.Repeat("không-có-dấu-chấm ", 40)
	chunks := []Chunk{{ID: "solid", Location: "Chương I", Content: strings.TrimSpace(content)}}

	refined := Refine(chunks, 100, nil)
	if len(refined) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(refined))
	}
	if refined[0].ID != "solid" {
		t.Errorf("expected original chunk kept, got ID %q", refined[0].ID)
	}
	if strings.Contains(refined[0].Location, "phần") {
		t.Errorf("expected location untouched, got %q", refined[0].Location)
	}
}

func TestSentenceSplitter_Boundaries(t *testing.T) {
	tests := []struct {
		name    string
		content string
		limit   int
		want    []string
	}{
		{
			name:    "splits at sentence ends",
			content: "Câu thứ nhất. Câu thứ hai. Câu thứ ba.",
			limit:   16,
			want:    []string{"Câu thứ nhất.", "Câu thứ hai.", "Câu thứ ba."},
		},
		{
			name:    "packs sentences under the limit",
			content: "Câu thứ nhất. Câu thứ hai. Câu thứ ba.",
			limit:   30,
			want:    []string{"Câu thứ nhất. Câu thứ hai.", "Câu thứ ba."},
		},
		{
			name:    "semicolons end sentences",
			content: "Điểm a; Điểm b; Điểm c.",
			limit:   10,
			want:    []string{"Điểm a;", "Điểm b;", "Điểm c."},
		},
		{
			name:    "newlines end sentences",
			content: "Sửa đổi như sau:\na) Nội dung mới",
			limit:   18,
			want:    []string{"Sửa đổi như sau:", "a) Nội dung mới"},
		},
		{
			name:    "short content stays whole",
			content: "Một câu duy nhất.",
			limit:   100,
			want:    []string{"Một câu duy nhất."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SentenceSplitter{}.Split(tt.content, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d parts, got %d: %q", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("part %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}
