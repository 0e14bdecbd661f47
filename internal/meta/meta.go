// Package meta extracts the administrative metadata of a legal
// document from its classified text units: number, type, issuing
// authority, dates, summary, and signatory.
package meta

import (
	"strings"

	"github.com/ngocdv/vanban/internal/classify"
)

// amendingMarker in the summary distinguishes amending laws from
// self-contained ones.
const amendingMarker = "SỬA ĐỔI, BỔ SUNG"

// Metadata holds the administrative fields of a legal document. JSON
// names follow the Vietnamese archival convention expected by the
// downstream corpus tooling.
type Metadata struct {
	Number         string `json:"so_hieu"`
	Type           string `json:"loai_van_ban"`
	Issuer         string `json:"noi_ban_hanh"`
	IssueDate      string `json:"ngay_ban_hanh"`
	EffectiveDate  string `json:"ngay_hieu_luc"`
	Name           string `json:"ten_van_ban"`
	Summary        string `json:"trich_yeu"`
	Signatory      string `json:"nguoi_ky"`
	SignatoryTitle string `json:"chuc_vu_nguoi_ky"`
	Term           string `json:"khoa,omitempty"`
	Session        string `json:"ky_hop,omitempty"`
	SourceFile     string `json:"file_name"`
}

// DocType returns the typed document kind used for grammar selection.
// Unrecognized or missing type strings map to TypeUnknown.
func (m Metadata) DocType() classify.DocType {
	t := classify.DocType(strings.ToUpper(strings.TrimSpace(m.Type)))
	for _, known := range classify.DocTypes {
		if t == known {
			return t
		}
	}
	return classify.TypeUnknown
}

// IsAmending reports whether the summary declares this document an
// amending law. Amending laws carry change instructions instead of a
// chapter tree and are parsed by a separate grammar walk.
func (m Metadata) IsAmending() bool {
	return strings.Contains(strings.ToUpper(m.Summary), amendingMarker)
}

// DisplayName is the name used at the root of citation paths: the
// composed document name when available, the source file otherwise.
func (m Metadata) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.SourceFile
}
