package parse

import (
	"strings"
	"testing"

	"github.com/ngocdv/vanban/internal/meta"
	"github.com/ngocdv/vanban/internal/span"
)

func amendingLawMeta() meta.Metadata {
	return meta.Metadata{
		Type:       "LUẬT",
		Number:     "20/2023/QH15",
		Summary:    "Luật sửa đổi, bổ sung một số điều của Luật Giao dịch điện tử",
		SourceFile: "luat-sua-doi.pdf",
	}
}

func TestParseAmending_Articles(t *testing.T) {
	p := New(nil, nil, nil)
	units := span.FromLines([]string{
		"Điều 1. Sửa đổi, bổ sung một số điều của Luật Giao dịch điện tử",
		"1. Sửa đổi điểm a khoản 1 Điều 4 như sau:",
		"a) Chữ ký điện tử chuyên dùng bảo đảm an toàn",
		"b) Chứng thư chữ ký số có thời hạn hiệu lực",
		"2. Bổ sung khoản 3 Điều 8 như sau:",
		"“3. Dữ liệu số được chia sẻ theo quy định của Chính phủ”",
		"Điều 2. Hiệu lực thi hành",
		"Luật này có hiệu lực thi hành từ ngày 01 tháng 7 năm 2024.",
		"CHỦ TỊCH QUỐC HỘI",
		"Trần Thanh Mẫn",
	})

	doc := p.Parse(units, amendingLawMeta())

	if len(doc.Chapters) != 0 {
		t.Errorf("expected no chapter tree for an amending law, got %d chapters", len(doc.Chapters))
	}
	if len(doc.Amendments) != 2 {
		t.Fatalf("expected 2 amending articles, got %d", len(doc.Amendments))
	}

	first := doc.Amendments[0]
	if first.Label != "Điều 1" {
		t.Errorf("expected article label %q, got %q", "Điều 1", first.Label)
	}
	if first.Title != "Sửa đổi, bổ sung một số điều của Luật Giao dịch điện tử" {
		t.Errorf("unexpected article title %q", first.Title)
	}
	if len(first.Changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(first.Changes))
	}

	c1 := first.Changes[0]
	if c1.Label != "Mục 1" {
		t.Errorf("expected change label %q, got %q", "Mục 1", c1.Label)
	}
	if c1.Instruction != "1. Sửa đổi điểm a khoản 1 Điều 4 như sau:" {
		t.Errorf("unexpected instruction %q", c1.Instruction)
	}
	wantContent := "a) Chữ ký điện tử chuyên dùng bảo đảm an toàn\nb) Chứng thư chữ ký số có thời hạn hiệu lực"
	if c1.Content != wantContent {
		t.Errorf("expected content %q, got %q", wantContent, c1.Content)
	}

	c2 := first.Changes[1]
	if c2.Label != "Mục 2" {
		t.Errorf("expected change label %q, got %q", "Mục 2", c2.Label)
	}
	if !strings.Contains(c2.Instruction, "Bổ sung khoản 3 Điều 8") {
		t.Errorf("unexpected instruction %q", c2.Instruction)
	}

	second := doc.Amendments[1]
	if second.Label != "Điều 2" {
		t.Errorf("expected article label %q, got %q", "Điều 2", second.Label)
	}
	if !strings.Contains(second.Title, "Hiệu lực thi hành") {
		t.Errorf("unexpected article title %q", second.Title)
	}
	if strings.Contains(second.Title, "CHỦ TỊCH") {
		t.Errorf("expected signature excluded from the title, got %q", second.Title)
	}
}

func TestParseAmending_QuoteTrimmedContent(t *testing.T) {
	p := New(nil, nil, nil)
	units := span.FromLines([]string{
		"Điều 1. Sửa đổi Điều 10 của Nghị định số 01/2020/NĐ-CP",
		"1. Điểm b khoản 2 Điều 10 được sửa đổi như sau:",
		"b) Hồ sơ đăng ký được nộp trực tuyến.”",
	})
	md := meta.Metadata{
		Type:    "NGHỊ ĐỊNH",
		Summary: "Nghị định sửa đổi, bổ sung một số điều của Nghị định số 01/2020/NĐ-CP",
	}

	doc := p.Parse(units, md)

	if len(doc.Amendments) != 1 || len(doc.Amendments[0].Changes) != 1 {
		t.Fatalf("expected 1 article with 1 change, got %+v", doc.Amendments)
	}
	got := doc.Amendments[0].Changes[0].Content
	if got != "b) Hồ sơ đăng ký được nộp trực tuyến." {
		t.Errorf("expected closing quote trimmed, got %q", got)
	}
}

func TestParseAmending_NoArticleHeadings(t *testing.T) {
	p := New(nil, nil, nil)
	units := span.FromLines([]string{
		"Phần mở đầu không có cấu trúc.",
		"Không có điều khoản nào.",
	})

	doc := p.Parse(units, amendingLawMeta())

	if len(doc.Amendments) != 0 {
		t.Errorf("expected no amendments, got %d", len(doc.Amendments))
	}
}

func TestParse_AmendingRoutingByType(t *testing.T) {
	p := New(nil, nil, nil)
	units := span.FromLines([]string{
		"I. Nội dung sửa đổi",
		"1. Điều chỉnh nhiệm vụ được giao",
	})
	md := meta.Metadata{
		Type:    "CHỈ THỊ",
		Summary: "Về việc sửa đổi, bổ sung một số nhiệm vụ",
	}

	doc := p.Parse(units, md)

	if len(doc.Amendments) != 0 {
		t.Errorf("expected directives to keep the chapter walk, got %d amendments", len(doc.Amendments))
	}
	if len(doc.Chapters) != 1 {
		t.Errorf("expected 1 chapter, got %d", len(doc.Chapters))
	}
}
