package model

import "time"

// JournalEntry is one user-authored post: free text plus an image.
//
// Image is only populated when the caller asks for it (serving
// /serve_image/{id}); feed listings leave it nil so a page of twenty entries
// doesn't drag twenty blobs out of the database.
type JournalEntry struct {
	ID        int64     `json:"id"        db:"id"`
	UserID    string    `json:"userId"    db:"user_id"`
	Text      string    `json:"entryText" db:"entry_text"`
	Image     []byte    `json:"-"         db:"image"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
