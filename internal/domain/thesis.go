package domain

import "time"

// InitialRevisionCount is the revision quota every chapter starts with.
// A top-up purchase adds TopUpRevisionCount more.
const (
	InitialRevisionCount = 5
	TopUpRevisionCount   = 5
)

// ThesisDraft is the aggregate root referencing a user, the subscription that
// paid for it, and the confirmed title. Individual chapters live in their own
// rows; SectionsJSON holds a denormalized snapshot of the full sections map
// for fast rehydration.
type ThesisDraft struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	SubscriptionID string    `json:"subscription_id"`
	Title          string    `json:"title"`
	Fakultas       string    `json:"fakultas"`
	Jurusan        string    `json:"jurusan"`
	Peminatan      string    `json:"peminatan,omitempty"`
	SectionsJSON   string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Chapter is the durable per-section row of a thesis draft.
type Chapter struct {
	ID            string    `json:"id"`
	ThesisID      string    `json:"thesis_id"`
	Section       Section   `json:"section"`
	Content       string    `json:"content"`
	RevisionCount int       `json:"revision_count"`
	IsComplete    bool      `json:"is_complete"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RevisionPurchase is an append-only record of a revision top-up. Each
// purchase adds exactly TopUpRevisionCount to the chapter's quota.
type RevisionPurchase struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	ChapterID      string    `json:"chapter_id"`
	Amount         int64     `json:"amount"`
	RevisionsAdded int       `json:"revisions_added"`
	TransactionID  string    `json:"transaction_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// RevisionRecord is one entry of a chapter's revision history.
type RevisionRecord struct {
	ID              string    `json:"id"`
	ChapterID       string    `json:"chapter_id"`
	Feedback        string    `json:"feedback"`
	PreviousContent string    `json:"previous_content"`
	NewContent      string    `json:"new_content"`
	CreatedAt       time.Time `json:"created_at"`
}
