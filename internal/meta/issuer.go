package meta

import "strings"

// IssuerUnknown is the placeholder authority for document numbers that
// match no known fragment.
const IssuerUnknown = "Không xác định"

// issuerByFragment maps number-suffix fragments to issuing authorities.
// Ordered slices, not maps: resolution must be deterministic and the
// specific fragments must win before the generic fallbacks below.
var issuerByFragment = []struct {
	fragment string
	issuer   string
}{
	{"CT-TTg", "THỦ TƯỚNG CHÍNH PHỦ"},
	{"CT-NHNN", "NGÂN HÀNG NHÀ NƯỚC VIỆT NAM"},
	{"CT-BTTTT", "BỘ THÔNG TIN VÀ TRUYỀN THÔNG"},
	{"CT-VPCP", "VĂN PHÒNG CHÍNH PHỦ"},
	{"QĐ-TTg", "THỦ TƯỚNG CHÍNH PHỦ"},
	{"TT-BCA", "BỘ CÔNG AN"},
	{"TT-BGDĐT", "BỘ GIÁO DỤC VÀ ĐÀO TẠO"},
	{"TT-BKHĐT", "BỘ KẾ HOẠCH VÀ ĐẦU TƯ"},
	{"VBPL", "QUỐC HỘI"},
	{"NĐ-CP", "CHÍNH PHỦ"},
}

// issuerFallbacks catches numbers whose suffix carries only the organ
// abbreviation. UBTVQH sits before QH so the longer fragment is not
// shadowed by its substring.
var issuerFallbacks = []struct {
	fragment string
	issuer   string
}{
	{"UBTVQH", "ỦY BAN THƯỜNG VỤ QUỐC HỘI"},
	{"NHNN", "NGÂN HÀNG NHÀ NƯỚC VIỆT NAM"},
	{"CP", "CHÍNH PHỦ"},
	{"TTg", "THỦ TƯỚNG CHÍNH PHỦ"},
	{"QH", "QUỐC HỘI"},
}

// IssuerFor resolves the issuing authority from a document number such
// as "28/2023/CT-TTg". Numbers that match nothing resolve to
// IssuerUnknown.
func IssuerFor(number string) string {
	if number == "" {
		return IssuerUnknown
	}
	for _, e := range issuerByFragment {
		if strings.Contains(number, e.fragment) {
			return e.issuer
		}
	}
	for _, e := range issuerFallbacks {
		if strings.Contains(number, e.fragment) {
			return e.issuer
		}
	}
	return IssuerUnknown
}
