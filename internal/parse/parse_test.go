package parse

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ngocdv/vanban/internal/doctree"
	"github.com/ngocdv/vanban/internal/meta"
	"github.com/ngocdv/vanban/internal/span"
)

func directiveMeta() meta.Metadata {
	return meta.Metadata{Type: "CHỈ THỊ", Number: "28/2023/CT-TTg", SourceFile: "chi-thi.pdf"}
}

func decreeMeta() meta.Metadata {
	return meta.Metadata{Type: "NGHỊ ĐỊNH", Number: "42/2025/NĐ-CP", SourceFile: "nghi-dinh.pdf"}
}

func TestParse_DirectiveTree(t *testing.T) {
	p := New(nil, nil, nil)
	units := span.FromLines([]string{
		"I. Phạm vi điều chỉnh",
		"1. Nội dung này quy định trách nhiệm của các cơ quan",
		"a) Đối tượng áp dụng",
		"- Cơ quan nhà nước",
		"- Tổ chức, cá nhân",
		"THỦ TƯỚNG",
		"Phạm Minh Chính",
	})

	doc := p.Parse(units, directiveMeta())

	if len(doc.Chapters) != 1 {
		t.Fatalf("expected 1 chapter, got %d", len(doc.Chapters))
	}
	ch := doc.Chapters[0]
	if ch.Ordinal != "I" || ch.Label != "Chương I" {
		t.Errorf("expected chapter I labelled %q, got %q/%q", "Chương I", ch.Ordinal, ch.Label)
	}
	if ch.Title != "Phạm vi điều chỉnh" {
		t.Errorf("expected chapter title %q, got %q", "Phạm vi điều chỉnh", ch.Title)
	}

	if len(ch.Children) != 1 {
		t.Fatalf("expected 1 section, got %d", len(ch.Children))
	}
	sec := ch.Children[0]
	if sec.Label != "Mục 1" {
		t.Errorf("expected section label %q, got %q", "Mục 1", sec.Label)
	}
	if sec.Title != "Nội dung này quy định trách nhiệm của các cơ quan" {
		t.Errorf("unexpected section title %q", sec.Title)
	}

	if len(sec.Children) != 1 {
		t.Fatalf("expected 1 clause, got %d", len(sec.Children))
	}
	cl := sec.Children[0]
	if cl.Label != "Khoản a" {
		t.Errorf("expected clause label %q, got %q", "Khoản a", cl.Label)
	}
	if cl.Title != "Đối tượng áp dụng" {
		t.Errorf("unexpected clause title %q", cl.Title)
	}

	wantPoints := []string{"Cơ quan nhà nước", "Tổ chức, cá nhân"}
	if !reflect.DeepEqual(cl.Points, wantPoints) {
		t.Errorf("expected points %v, got %v", wantPoints, cl.Points)
	}
}

func TestParse_DecreeTree(t *testing.T) {
	p := New(nil, nil, nil)
	units := span.FromLines([]string{
		"Chương I",
		"QUY ĐỊNH CHUNG",
		"Điều 1. Phạm vi điều chỉnh",
		"1. Nghị định này quy định chi tiết việc quản lý dữ liệu",
		"a) Dữ liệu của cơ quan nhà nước",
		"b) Dữ liệu của tổ chức, cá nhân",
		"Điều 2. Đối tượng áp dụng",
		"Nghị định này áp dụng với mọi cơ quan, tổ chức.",
	})

	doc := p.Parse(units, decreeMeta())

	if len(doc.Chapters) != 1 {
		t.Fatalf("expected 1 chapter, got %d", len(doc.Chapters))
	}
	ch := doc.Chapters[0]
	if ch.Ordinal != "I" || ch.Title != "QUY ĐỊNH CHUNG" {
		t.Errorf("expected chapter I titled from the following line, got %q/%q", ch.Ordinal, ch.Title)
	}

	if len(ch.Children) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(ch.Children))
	}
	sec := ch.Children[0]
	if sec.Label != "Điều 1" || sec.Title != "Phạm vi điều chỉnh" {
		t.Errorf("unexpected section %q/%q", sec.Label, sec.Title)
	}

	if len(sec.Children) != 1 {
		t.Fatalf("expected 1 clause, got %d", len(sec.Children))
	}
	cl := sec.Children[0]
	if cl.Label != "Khoản 1" {
		t.Errorf("expected clause label %q, got %q", "Khoản 1", cl.Label)
	}
	wantPoints := []string{
		"a) Dữ liệu của cơ quan nhà nước",
		"b) Dữ liệu của tổ chức, cá nhân",
	}
	if !reflect.DeepEqual(cl.Points, wantPoints) {
		t.Errorf("expected lettered points %v, got %v", wantPoints, cl.Points)
	}

	second := ch.Children[1]
	if second.Label != "Điều 2" {
		t.Errorf("expected section label %q, got %q", "Điều 2", second.Label)
	}
	if second.Title != "Đối tượng áp dụng Nghị định này áp dụng với mọi cơ quan, tổ chức." {
		t.Errorf("expected prose absorbed into the article title, got %q", second.Title)
	}
}

func TestParse_PointsWithoutClauseGetAnonymousClause(t *testing.T) {
	p := New(nil, nil, nil)
	units := span.FromLines([]string{
		"1. Quan điểm chỉ đạo",
		"- Điểm thứ nhất",
		"- Điểm thứ hai",
		"2. Mục tiêu cụ thể",
	})

	doc := p.Parse(units, directiveMeta())

	ch := doc.Chapters[0]
	if !ch.IsAnonymous() {
		t.Errorf("expected synthesized chapter, got %q", ch.Label)
	}
	if len(ch.Children) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(ch.Children))
	}

	sec := ch.Children[0]
	if len(sec.Children) != 1 {
		t.Fatalf("expected 1 synthesized clause, got %d", len(sec.Children))
	}
	cl := sec.Children[0]
	if cl.Label != "" || cl.Ordinal != "" {
		t.Errorf("expected anonymous clause, got %q", cl.Label)
	}
	if len(cl.Points) != 2 {
		t.Errorf("expected 2 points, got %d", len(cl.Points))
	}
}

func TestParse_ClauseBeforeSectionSynthesis(t *testing.T) {
	p := New(nil, nil, nil)
	units := span.FromLines([]string{
		"I. Nhiệm vụ trọng tâm",
		"a) Hoàn thiện thể chế",
		"- Rà soát văn bản hiện hành",
	})

	doc := p.Parse(units, directiveMeta())

	ch := doc.Chapters[0]
	if len(ch.Children) != 1 {
		t.Fatalf("expected 1 synthesized section, got %d", len(ch.Children))
	}
	sec := ch.Children[0]
	if sec.Label != "" {
		t.Errorf("expected anonymous section between chapter and clause, got %q", sec.Label)
	}
	if len(sec.Children) != 1 || sec.Children[0].Label != "Khoản a" {
		t.Fatalf("expected clause under synthesized section, got %+v", sec.Children)
	}
	if len(sec.Children[0].Points) != 1 {
		t.Errorf("expected 1 point, got %d", len(sec.Children[0].Points))
	}
}

func TestParse_SignatureTruncates(t *testing.T) {
	p := New(nil, nil, nil)
	units := span.FromLines([]string{
		"I. Nội dung chính",
		"1. Yêu cầu chung",
		"- Điểm trước chữ ký",
		"KT. THỦ TƯỚNG",
		"PHÓ THỦ TƯỚNG",
		"Trần Hồng Hà",
		"2. Không được xuất hiện",
	})

	doc := p.Parse(units, directiveMeta())

	ch := doc.Chapters[0]
	if len(ch.Children) != 1 {
		t.Fatalf("expected parsing to stop at the signature, got %d sections", len(ch.Children))
	}
	sec := ch.Children[0]
	if len(sec.Children) != 1 || len(sec.Children[0].Points) != 1 {
		t.Errorf("expected the buffered point to be flushed before stopping")
	}
}

func TestParse_EndMarkerTruncates(t *testing.T) {
	p := New(nil, nil, nil)
	units := span.FromLines([]string{
		"I. Nội dung",
		"1. Điều khoản thi hành",
		"./.",
		"2. Phần dư thừa",
	})

	doc := p.Parse(units, directiveMeta())

	ch := doc.Chapters[0]
	if len(ch.Children) != 1 {
		t.Errorf("expected content after the end marker to be dropped, got %d sections", len(ch.Children))
	}
}

func TestParse_TitleContinuation(t *testing.T) {
	p := New(nil, nil, nil)
	units := span.FromLines([]string{
		"I. Tổ chức thực hiện",
		"và trách nhiệm thi hành",
		"1. Bộ Công an chủ trì",
	})

	doc := p.Parse(units, directiveMeta())

	ch := doc.Chapters[0]
	if ch.Title != "Tổ chức thực hiện và trách nhiệm thi hành" {
		t.Errorf("expected continuation joined into the title, got %q", ch.Title)
	}
	if len(ch.Children) != 1 {
		t.Errorf("expected the section after the continuation, got %d", len(ch.Children))
	}
}

func TestParse_ProseExtendsLastPoint(t *testing.T) {
	p := New(nil, nil, nil)
	units := span.FromLines([]string{
		"I. Giải pháp",
		"a) Giải pháp kỹ thuật",
		"- Nâng cấp hệ thống giám sát",
		"bảo đảm hoạt động liên tục.",
	})

	doc := p.Parse(units, directiveMeta())

	cl := doc.Chapters[0].Children[0].Children[0]
	if len(cl.Points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(cl.Points))
	}
	want := "Nâng cấp hệ thống giám sát bảo đảm hoạt động liên tục."
	if cl.Points[0] != want {
		t.Errorf("expected point %q, got %q", want, cl.Points[0])
	}
}

func TestParse_AllBoilerplate(t *testing.T) {
	p := New(nil, nil, nil)
	units := span.FromLines([]string{
		"CỘNG HÒA XÃ HỘI CHỦ NGHĨA VIỆT NAM",
		"Độc lập - Tự do - Hạnh phúc",
		"Ký bởi: Cổng Thông tin điện tử Chính phủ",
		"CHINHPHU.VN",
	})

	doc := p.Parse(units, meta.Metadata{SourceFile: "boilerplate.pdf"})

	if len(doc.Chapters) != 0 {
		t.Errorf("expected no chapters for a boilerplate-only document, got %d", len(doc.Chapters))
	}
	if len(doc.Amendments) != 0 {
		t.Errorf("expected no amendments, got %d", len(doc.Amendments))
	}
}

func TestParse_DegradedModeKeepsBody(t *testing.T) {
	p := New(nil, nil, nil)
	units := []span.TextUnit{
		{Content: "CHỈ THỊ", Bold: true, Page: 1},
		{Content: "Về việc đôn đốc nhiệm vụ trọng tâm", Bold: true, Page: 1},
		{Content: "Các bộ, ngành khẩn trương triển khai nhiệm vụ được giao.", Page: 1},
		{Content: "Ủy ban nhân dân các tỉnh báo cáo kết quả trước ngày 30.", Page: 1},
	}

	doc := p.Parse(units, meta.Metadata{Type: "CHỈ THỊ", SourceFile: "degraded.pdf"})

	if len(doc.Chapters) != 1 {
		t.Fatalf("expected a synthesized root chapter, got %d", len(doc.Chapters))
	}
	cl := doc.Chapters[0].Children[0].Children[0]
	wantPoints := []string{
		"Các bộ, ngành khẩn trương triển khai nhiệm vụ được giao.",
		"Ủy ban nhân dân các tỉnh báo cáo kết quả trước ngày 30.",
	}
	if !reflect.DeepEqual(cl.Points, wantPoints) {
		t.Errorf("expected body kept as points %v, got %v", wantPoints, cl.Points)
	}
}

func TestParse_Idempotent(t *testing.T) {
	p := New(nil, nil, nil)
	units := span.FromLines([]string{
		"I. Phạm vi điều chỉnh",
		"1. Nội dung quy định",
		"a) Đối tượng áp dụng",
		"- Cơ quan nhà nước",
	})

	first := p.Parse(units, directiveMeta())
	second := p.Parse(units, directiveMeta())

	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical trees from repeated parses of the same input")
	}
}

func TestParse_ContentPreservation(t *testing.T) {
	p := New(nil, nil, nil)
	body := []string{
		"1. Nội dung này quy định trách nhiệm",
		"a) Đối tượng áp dụng",
		"- Cơ quan nhà nước các cấp",
		"- Tổ chức, cá nhân liên quan",
		"b) Nguyên tắc thực hiện",
		"Bảo đảm công khai, minh bạch.",
	}
	lines := append([]string{"I. Quy định chung"}, body...)

	doc := p.Parse(span.FromLines(lines), directiveMeta())

	var b strings.Builder
	doc.Walk(func(n *doctree.Node, _ int) {
		b.WriteString(n.Title)
		b.WriteString("\n")
		for _, pt := range n.Points {
			b.WriteString(pt)
			b.WriteString("\n")
		}
	})
	tree := b.String()

	wantRetained := []string{
		"Nội dung này quy định trách nhiệm",
		"Đối tượng áp dụng",
		"Cơ quan nhà nước các cấp",
		"Tổ chức, cá nhân liên quan",
		"Nguyên tắc thực hiện",
		"Bảo đảm công khai, minh bạch.",
	}
	for _, fragment := range wantRetained {
		if !strings.Contains(tree, fragment) {
			t.Errorf("expected tree to retain %q", fragment)
		}
	}
}
