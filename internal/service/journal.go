package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
)

// PageSize is how many entries one feed page shows.
const PageSize = 20

// Page is one page of a feed, newest entry first.
type Page struct {
	Entries []model.JournalEntry
	Number  int // 1-based
	HasPrev bool
	HasNext bool
}

// JournalService handles journal entries and the feeds built from them.
type JournalService struct {
	journals repository.JournalRepository
	logger   *slog.Logger
}

func NewJournalService(journals repository.JournalRepository, logger *slog.Logger) *JournalService {
	return &JournalService{journals: journals, logger: logger}
}

// Create stores a new entry for userID. Both the text and the image are
// required; when either is missing nothing is written.
func (s *JournalService) Create(ctx context.Context, userID, text string, image []byte) (*model.JournalEntry, error) {
	if text == "" {
		return nil, apperror.ValidationFailed("text", "Entry text is required.")
	}
	if len(image) == 0 {
		return nil, apperror.ValidationFailed("file", "An image is required.")
	}

	entry := &model.JournalEntry{UserID: userID, Text: text, Image: image}
	if err := s.journals.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("service/journal: creating entry for %s: %w", userID, err)
	}

	s.logger.Info("journal entry created",
		slog.Int64("entryID", entry.ID),
		slog.String("userID", userID),
		slog.Int("imageBytes", len(image)),
	)
	return entry, nil
}

// Feed returns page n (1-based) of every user's entries.
func (s *JournalService) Feed(ctx context.Context, page int) (*Page, error) {
	return s.list(ctx, "", page)
}

// UserFeed returns page n (1-based) of userID's own entries.
func (s *JournalService) UserFeed(ctx context.Context, userID string, page int) (*Page, error) {
	return s.list(ctx, userID, page)
}

// list asks for one row more than a page holds; getting it back is how we
// know a next page exists without a separate COUNT query.
func (s *JournalService) list(ctx context.Context, userID string, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}

	entries, err := s.journals.List(ctx, repository.ListOptions{
		UserID: userID,
		Limit:  PageSize + 1,
		Offset: (page - 1) * PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("service/journal: listing page %d: %w", page, err)
	}

	p := &Page{Number: page, HasPrev: page > 1}
	if len(entries) > PageSize {
		p.HasNext = true
		entries = entries[:PageSize]
	}
	p.Entries = entries
	return p, nil
}

// Image returns the image bytes of entry id.
func (s *JournalService) Image(ctx context.Context, id int64) ([]byte, error) {
	img, err := s.journals.GetImage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/journal: loading image %d: %w", id, err)
	}
	return img, nil
}
