package domain

import "strings"

// LeadProfile holds the study-program details captured by the lead form.
// It becomes immutable once the funnel enters title selection.
type LeadProfile struct {
	Fakultas  string `json:"fakultas"`
	Jurusan   string `json:"jurusan"`
	Peminatan string `json:"peminatan,omitempty"`
	Email     string `json:"email"`
}

// Validate checks that all required lead fields are present.
func (l LeadProfile) Validate() error {
	if strings.TrimSpace(l.Fakultas) == "" {
		return &ValidationError{Field: "fakultas", Message: "fakultas is required"}
	}
	if strings.TrimSpace(l.Jurusan) == "" {
		return &ValidationError{Field: "jurusan", Message: "jurusan is required"}
	}
	email := strings.TrimSpace(l.Email)
	if email == "" || !strings.Contains(email, "@") {
		return &ValidationError{Field: "email", Message: "a valid email is required"}
	}
	return nil
}

// TitleIdea is one proposed thesis title.
type TitleIdea struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
