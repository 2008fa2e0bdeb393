package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
)

func TestUpdateProfilePicture(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users["alice"] = &model.User{ID: "alice", PasswordHash: "h"}
	svc := NewAccountService(repo, discardLogger())
	ctx := context.Background()

	if _, err := svc.ProfilePicture(ctx, "alice"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("ProfilePicture() before upload error = %v, want ErrNotFound", err)
	}

	if err := svc.UpdateProfilePicture(ctx, "alice", []byte("first")); err != nil {
		t.Fatalf("UpdateProfilePicture() error = %v", err)
	}
	if err := svc.UpdateProfilePicture(ctx, "alice", []byte("second")); err != nil {
		t.Fatalf("UpdateProfilePicture() error = %v", err)
	}

	pic, err := svc.ProfilePicture(ctx, "alice")
	if err != nil {
		t.Fatalf("ProfilePicture() error = %v", err)
	}
	if string(pic) != "second" {
		t.Errorf("ProfilePicture() = %q, want last upload %q", pic, "second")
	}
}

func TestUpdateProfilePicture_EmptyFile(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users["alice"] = &model.User{ID: "alice"}
	svc := NewAccountService(repo, discardLogger())

	err := svc.UpdateProfilePicture(context.Background(), "alice", nil)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("UpdateProfilePicture(nil) error = %v, want ErrValidation", err)
	}
}

func TestUpdateProfilePicture_RepositoryError(t *testing.T) {
	repo := newFakeUserRepo()
	repo.updateErr = errors.New("locked")
	svc := NewAccountService(repo, discardLogger())

	if err := svc.UpdateProfilePicture(context.Background(), "alice", []byte("x")); err == nil {
		t.Fatal("UpdateProfilePicture() should surface the repository error")
	}
}
