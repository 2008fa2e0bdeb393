package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
)

var _ repository.JournalRepository = (*JournalDB)(nil)

// JournalDB is the journals-table view of DB.
type JournalDB struct {
	conn *sql.DB
}

// Journals returns the repository for the journals table.
func (db *DB) Journals() *JournalDB {
	return &JournalDB{conn: db.conn}
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Create inserts a journal entry and fills in its autoincrement ID.
//
// LastInsertId() is how database/sql exposes SQLite's rowid for the row we
// just wrote. Because journals.id is INTEGER PRIMARY KEY AUTOINCREMENT, ids are
// strictly increasing, which is what "newest first" ordering relies on.
func (db *JournalDB) Create(ctx context.Context, entry *model.JournalEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO journals (entry_text, image, user_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		entry.Text,
		entry.Image,
		entry.UserID,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating journal entry for %s: %w", entry.UserID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading journal entry id: %w", err)
	}
	entry.ID = id
	return nil
}

// List returns entries newest first, optionally filtered by author.
//
// The image column is deliberately NOT selected: feeds render text only and
// the browser fetches each picture from /serve_image/{id} on its own.
func (db *JournalDB) List(ctx context.Context, opts repository.ListOptions) ([]model.JournalEntry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	var (
		rows *sql.Rows
		err  error
	)
	if opts.UserID == "" {
		rows, err = db.conn.QueryContext(ctx,
			`SELECT id, entry_text, user_id, created_at
			 FROM journals
			 ORDER BY id DESC
			 LIMIT ? OFFSET ?`,
			limit, offset,
		)
	} else {
		rows, err = db.conn.QueryContext(ctx,
			`SELECT id, entry_text, user_id, created_at
			 FROM journals
			 WHERE user_id = ?
			 ORDER BY id DESC
			 LIMIT ? OFFSET ?`,
			opts.UserID, limit, offset,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing journal entries: %w", err)
	}
	// CRITICAL: always close rows when done!
	defer rows.Close()

	entries := make([]model.JournalEntry, 0, limit)
	for rows.Next() {
		var e model.JournalEntry
		if err := rows.Scan(&e.ID, &e.Text, &e.UserID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning journal row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating journal entries: %w", err)
	}

	return entries, nil
}

// GetImage returns the stored image bytes of one entry.
// An unknown id and an entry with a NULL/empty image are both NotFound.
func (db *JournalDB) GetImage(ctx context.Context, id int64) ([]byte, error) {
	var image []byte
	err := db.conn.QueryRowContext(ctx,
		`SELECT image FROM journals WHERE id = ?`, id,
	).Scan(&image)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("journal entry", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting image for entry %d: %w", id, err)
	}
	if len(image) == 0 {
		return nil, apperror.NotFound("journal image", strconv.FormatInt(id, 10))
	}
	return image, nil
}
