// Package repository declares the storage contracts the service layer depends on.
//
// Services accept these interfaces, never a concrete *sqlite.DB, so tests can
// swap in in-memory fakes and the SQL details stay inside repository/sqlite.
package repository

import (
	"context"

	"github.com/sakif/travel-journal/internal/model"
)

type ListOptions struct {
	// UserID restricts the listing to one author. Empty means every author.
	UserID string
	Limit  int
	Offset int
}

type UserRepository interface {
	// Create inserts a new user. Returns apperror.ErrConflict when the
	// username (or GitHub id) already exists.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateProfilePicture(ctx context.Context, id string, picture []byte) error
	// GetProfilePicture returns apperror.ErrNotFound when the user has no picture.
	GetProfilePicture(ctx context.Context, id string) ([]byte, error)
}

type JournalRepository interface {
	Create(ctx context.Context, entry *model.JournalEntry) error
	// List returns entries newest first (descending id), without images.
	List(ctx context.Context, opts ListOptions) ([]model.JournalEntry, error)
	// GetImage returns apperror.ErrNotFound when the entry is missing or has no image.
	GetImage(ctx context.Context, id int64) ([]byte, error)
}

type PlanRepository interface {
	RecordPlan(ctx context.Context, record *model.PlanRecord) error
}
