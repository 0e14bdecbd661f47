package classify

import (
	"regexp"
	"strings"
)

// RuleSet bundles the fixed pattern banks shared by every document type:
// gazette headers and footers, portal letterhead, signature titles,
// known signatory names and the end-of-document marker. Immutable once
// built; safe for concurrent use.
type RuleSet struct {
	headerFooter []*regexp.Regexp
	letterhead   []*regexp.Regexp
	sigTitle     *regexp.Regexp
	sigDelegated *regexp.Regexp
	names        map[string]struct{}
	endMarker    *regexp.Regexp
}

// Running gazette headers and footers. These appear on every page of a
// Công Báo print and carry no document content.
var headerFooterPatterns = []string{
	`^\s*CÔNG BÁO/Số`,
	`CÔNG\s*BÁO/Số\s*\d+\s*\+\s*\d+`,
	`^\s*\d+\s+CÔNG BÁO/Số`,
	`^\s*Trang\s+\d+\s*/\s*\d+\s*$`,
	`^\s*\d+\s*$`,
}

// Letterhead, digital-signature stamps and gazette back matter.
var letterheadPatterns = []string{
	`^CỘNG HÒA XÃ HỘI CHỦ NGHĨA VIỆT NAM`,
	`^Độc lập\s*[-–]\s*Tự do\s*[-–]\s*Hạnh phúc`,
	`^THỦ TƯỚNG CHÍNH PHỦ\s*$`,
	`^Ký bởi:`,
	`Cổng Thông tin điện tử Chính phủ`,
	`^Email:\s*thongtinchinhphu@chinhphu\.vn`,
	`^Cơ quan:\s*Văn phòng Chính phủ`,
	`^Thời gian ký:`,
	`CHINHPHU\.VN`,
	`^VGP\b`,
	`^VĂN PHÒNG CHÍNH PHỦ XUẤT BẢN`,
	`^Địa chỉ:`,
	`^Số 1 Hoàng Hoa Thám`,
	`^Điện thoại:`,
	`^Fax:`,
	`congbao@chinhphu\.vn`,
	`congbao\.chinhphu\.vn`,
	`^In tại:`,
	`Xí nghiệp Bản đồ`,
	`^Giá:.*đồng`,
}

// A signature line is an official title standing alone, optionally
// prefixed by a delegation mark (KT. = acting, TM. = on behalf of,
// TL. = by order of). "CHÍNH PHỦ" only counts with a delegation prefix;
// standing alone at the top of a decree it is the issuer heading.
const sigTitlePattern = `^\s*(KT\.|TM\.|TL\.)?\s*(PHÓ THỦ TƯỚNG|THỦ TƯỚNG|BỘ TRƯỞNG|THỨ TRƯỞNG|THỐNG ĐỐC|PHÓ CHỦ TỊCH QUỐC HỘI|CHỦ TỊCH QUỐC HỘI|PHÓ CHỦ TỊCH NƯỚC|CHỦ TỊCH NƯỚC|PHÓ CHỦ TỊCH HỘI ĐỒNG NHÂN DÂN|CHỦ TỊCH HỘI ĐỒNG NHÂN DÂN|PHÓ CHỦ TỊCH ỦY BAN NHÂN DÂN|CHỦ TỊCH ỦY BAN NHÂN DÂN|CHỦ TỊCH)\s*$`

const sigDelegatedPattern = `^\s*(KT\.|TM\.|TL\.)\s*(CHÍNH PHỦ|QUỐC HỘI)\s*$`

// Signatories seen across the processed corpus. A bare full name on a
// line near the end of the document closes the signature block.
var knownSignatories = []string{
	"Phạm Minh Chính",
	"Nguyễn Xuân Phúc",
	"Vũ Đức Đam",
	"Nguyễn Tấn Dũng",
	"Nguyễn Bắc Son",
	"Nguyễn Văn Bình",
	"Nguyễn Sinh Hùng",
	"Nguyễn Phú Trọng",
	"Nguyễn Thị Kim Ngân",
	"Vương Đình Huệ",
	"Trần Thanh Mẫn",
}

// Matches the "./." terminator and its spaced variants.
const endMarkerPattern = `^\s*\.\s*/\s*\.?\s*$`

// DefaultRules compiles the built-in pattern banks.
func DefaultRules() *RuleSet {
	r := &RuleSet{
		sigTitle:     regexp.MustCompile(sigTitlePattern),
		sigDelegated: regexp.MustCompile(sigDelegatedPattern),
		names:        make(map[string]struct{}, len(knownSignatories)),
		endMarker:    regexp.MustCompile(endMarkerPattern),
	}
	for _, p := range headerFooterPatterns {
		r.headerFooter = append(r.headerFooter, regexp.MustCompile(p))
	}
	for _, p := range letterheadPatterns {
		r.letterhead = append(r.letterhead, regexp.MustCompile(p))
	}
	for _, n := range knownSignatories {
		r.names[n] = struct{}{}
	}
	return r
}

// IsHeaderFooter reports whether the line is a running gazette header,
// footer or bare page number.
func (r *RuleSet) IsHeaderFooter(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	for _, p := range r.headerFooter {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// IsLetterhead reports whether the line is fixed organizational
// boilerplate (national banner, signing stamps, publisher block).
func (r *RuleSet) IsLetterhead(line string) bool {
	line = strings.TrimSpace(line)
	for _, p := range r.letterhead {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// IsBoilerplate combines header/footer and letterhead checks.
func (r *RuleSet) IsBoilerplate(line string) bool {
	return r.IsHeaderFooter(line) || r.IsLetterhead(line)
}

// IsSignatureTitle reports whether the line is an official title alone,
// optionally with a delegation prefix.
func (r *RuleSet) IsSignatureTitle(line string) bool {
	line = strings.TrimSpace(line)
	return r.sigTitle.MatchString(line) || r.sigDelegated.MatchString(line)
}

// IsKnownSignatory reports whether the line is exactly one of the known
// signatory names.
func (r *RuleSet) IsKnownSignatory(line string) bool {
	_, ok := r.names[strings.TrimSpace(line)]
	return ok
}

// IsEndMarker reports whether the line is the "./." document terminator.
func (r *RuleSet) IsEndMarker(line string) bool {
	return r.endMarker.MatchString(line)
}

// IsSignature reports whether the line belongs to the signature block:
// a title, a known name or the end marker.
func (r *RuleSet) IsSignature(line string) bool {
	return r.IsSignatureTitle(line) || r.IsKnownSignatory(line) || r.IsEndMarker(line)
}

// SignatureTitle extracts the bare title from a signature line,
// dropping any delegation prefix. Returns "" when the line is not a
// signature title.
func (r *RuleSet) SignatureTitle(line string) string {
	line = strings.TrimSpace(line)
	if m := r.sigTitle.FindStringSubmatch(line); m != nil {
		return m[2]
	}
	if m := r.sigDelegated.FindStringSubmatch(line); m != nil {
		return m[2]
	}
	return ""
}
