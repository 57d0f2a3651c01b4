// Package domain contains core domain types for the SkripsiCepat application.
package domain

// Section identifies one of the six ordered content units of a thesis draft:
// five sequential chapters plus the closing bibliography.
type Section string

const (
	SectionBab1          Section = "bab-1"
	SectionBab2          Section = "bab-2"
	SectionBab3          Section = "bab-3"
	SectionBab4          Section = "bab-4"
	SectionBab5          Section = "bab-5"
	SectionDaftarPustaka Section = "daftar-pustaka"
)

// sectionOrder is the canonical generation order. Unlocking, context assembly
// and completion advancement all derive from this slice.
var sectionOrder = []Section{
	SectionBab1,
	SectionBab2,
	SectionBab3,
	SectionBab4,
	SectionBab5,
	SectionDaftarPustaka,
}

// sectionLabels maps every section to its display heading.
var sectionLabels = map[Section]string{
	SectionBab1:          "BAB I - PENDAHULUAN",
	SectionBab2:          "BAB II - TINJAUAN PUSTAKA",
	SectionBab3:          "BAB III - METODOLOGI PENELITIAN",
	SectionBab4:          "BAB IV - HASIL DAN PEMBAHASAN",
	SectionBab5:          "BAB V - KESIMPULAN DAN SARAN",
	SectionDaftarPustaka: "DAFTAR PUSTAKA",
}

// SectionOrder returns the fixed section sequence. The returned slice is a
// copy; callers may not reorder the canonical sequence.
func SectionOrder() []Section {
	out := make([]Section, len(sectionOrder))
	copy(out, sectionOrder)
	return out
}

// IsValid reports whether s is one of the six known sections.
func (s Section) IsValid() bool {
	_, ok := sectionLabels[s]
	return ok
}

// Label returns the display heading for the section.
func (s Section) Label() string {
	return sectionLabels[s]
}

// Index returns the ordinal position of the section, or -1 if unknown.
func (s Section) Index() int {
	for i, sec := range sectionOrder {
		if sec == s {
			return i
		}
	}
	return -1
}

// Next returns the section following s in the fixed order. The second return
// is false when s is the last section or unknown.
func (s Section) Next() (Section, bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(sectionOrder) {
		return "", false
	}
	return sectionOrder[i+1], true
}

// Preceding returns every section before s in the fixed order.
func (s Section) Preceding() []Section {
	i := s.Index()
	if i <= 0 {
		return nil
	}
	out := make([]Section, i)
	copy(out, sectionOrder[:i])
	return out
}
