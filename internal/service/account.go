package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/repository"
)

// MsgPictureUpdated is flashed after a successful profile picture upload.
const MsgPictureUpdated = "Profile picture updated successfully!"

// AccountService manages the logged-in user's profile picture.
type AccountService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewAccountService(users repository.UserRepository, logger *slog.Logger) *AccountService {
	return &AccountService{users: users, logger: logger}
}

// UpdateProfilePicture replaces userID's picture. Last write wins.
func (s *AccountService) UpdateProfilePicture(ctx context.Context, userID string, picture []byte) error {
	if len(picture) == 0 {
		return apperror.ValidationFailed("profile_picture", "A picture file is required.")
	}

	if err := s.users.UpdateProfilePicture(ctx, userID, picture); err != nil {
		return fmt.Errorf("service/account: updating picture for %s: %w", userID, err)
	}

	s.logger.Info("profile picture updated",
		slog.String("userID", userID),
		slog.Int("bytes", len(picture)),
	)
	return nil
}

// ProfilePicture returns userID's picture, or apperror.ErrNotFound when none was uploaded.
func (s *AccountService) ProfilePicture(ctx context.Context, userID string) ([]byte, error) {
	pic, err := s.users.GetProfilePicture(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/account: loading picture for %s: %w", userID, err)
	}
	return pic, nil
}
