// Package service — authentication business logic.
//
// AuthService sits between the HTTP handlers and the user repository:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ PasswordService (bcrypt)
//
// It never touches sessions or cookies. Logging a user in means "confirm the
// credentials and return the user"; what the handler does with that (renew the
// session, redirect) is an HTTP concern.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/auth"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
)

// Messages shown next to the login and registration inputs.
const (
	MsgUsernameTaken     = "Username already taken!!"
	MsgNoSuchUsername    = "No such username!"
	MsgIncorrectPassword = "Incorrect password!"
	MsgPasswordTooLong   = "Password must be 72 bytes or fewer."
)

// maxGitHubNameAttempts bounds the search for a free username on GitHub sign-up.
const maxGitHubNameAttempts = 50

// AuthService handles registration, login and password changes.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates an account for username.
//
// The existence check gives the friendly error in the common case. It is not
// what guarantees uniqueness: two registrations can both pass it, and then the
// users primary key rejects the second insert, which the repository reports as
// the same Conflict.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	_, err := s.users.GetByID(ctx, username)
	switch {
	case err == nil:
		return apperror.Conflict("user_id", MsgUsernameTaken)
	case !errors.Is(err, apperror.ErrNotFound):
		return fmt.Errorf("service/auth: checking username %s: %w", username, err)
	}

	hash, err := s.hashPassword("password", password)
	if err != nil {
		return err
	}

	if err := s.users.Create(ctx, &model.User{ID: username, PasswordHash: hash}); err != nil {
		return fmt.Errorf("service/auth: registering %s: %w", username, err)
	}

	s.logger.Info("user registered", slog.String("userID", username))
	return nil
}

// Login checks the credentials and returns the user.
//
// An unknown username is always reported as MsgNoSuchUsername on user_id, and
// never reaches the password check, so a wrong password can only ever be
// reported for an account that exists.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("user_id", MsgNoSuchUsername)
		}
		return nil, fmt.Errorf("service/auth: loading %s: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			// A corrupt hash is our problem, but the visitor still just can't log in.
			s.logger.Error("stored password hash is unreadable",
				slog.String("userID", username),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.Unauthorized("password", MsgIncorrectPassword)
	}

	return user, nil
}

// ChangePassword overwrites the stored hash for userID.
//
// The current password is not asked for: a valid session is the only proof
// of identity, so anyone holding the session cookie can change it.
func (s *AuthService) ChangePassword(ctx context.Context, userID, newPassword string) error {
	hash, err := s.hashPassword("new_password", newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("service/auth: changing password for %s: %w", userID, err)
	}

	s.logger.Info("password changed", slog.String("userID", userID))
	return nil
}

// hashPassword hashes plaintext, reporting a too-long password on field.
func (s *AuthService) hashPassword(field, plaintext string) (string, error) {
	hash, err := s.passwords.Hash(plaintext)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", apperror.ValidationFailed(field, MsgPasswordTooLong)
	}
	if err != nil {
		return "", fmt.Errorf("service/auth: hashing password: %w", err)
	}
	return hash, nil
}

// LoginWithGitHub returns the account linked to the GitHub identity, creating
// one on first sign-in.
//
// A new account is named after the GitHub login. When that name already
// belongs to someone else, "-2", "-3", ... are tried. The password column gets
// an unusable hash, so the account can only be entered through GitHub.
func (s *AuthService) LoginWithGitHub(ctx context.Context, gh *auth.GitHubUser) (*model.User, error) {
	if gh == nil {
		return nil, errors.New("service/auth: GitHub user must not be nil")
	}

	user, err := s.users.GetByGitHubID(ctx, gh.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up github id %d: %w", gh.ID, err)
	}

	hash, err := s.passwords.UnusableHash()
	if err != nil {
		return nil, fmt.Errorf("service/auth: preparing github account: %w", err)
	}

	githubID := gh.ID
	for attempt := 1; attempt <= maxGitHubNameAttempts; attempt++ {
		name := gh.Login
		if attempt > 1 {
			name = fmt.Sprintf("%s-%d", gh.Login, attempt)
		}

		user := &model.User{ID: name, PasswordHash: hash, GitHubID: &githubID}
		err := s.users.Create(ctx, user)
		if err == nil {
			s.logger.Info("user registered via GitHub",
				slog.String("userID", name),
				slog.Int64("githubID", githubID),
			)
			return user, nil
		}
		if !errors.Is(err, apperror.ErrConflict) {
			return nil, fmt.Errorf("service/auth: creating github account %s: %w", name, err)
		}

		// The conflict may be on github_id: a concurrent callback for the same
		// GitHub user won the race. Its account is the one to use.
		if existing, lookupErr := s.users.GetByGitHubID(ctx, githubID); lookupErr == nil {
			return existing, nil
		}
	}

	return nil, fmt.Errorf("service/auth: no free username for github login %q", gh.Login)
}
