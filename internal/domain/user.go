package domain

import "time"

// User represents a visitor identified by the anonymous device cookie. The
// email and study-program fields are filled in from the lead form once the
// visitor converts.
type User struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	Fakultas   string    `json:"fakultas,omitempty"`
	Jurusan    string    `json:"jurusan,omitempty"`
	Peminatan  string    `json:"peminatan,omitempty"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
