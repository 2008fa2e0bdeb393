package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================
//
// In-memory implementations of the repository interfaces. Using fakes (not a
// mock framework) keeps the tests readable: you can see exactly what each
// method does. The *Err fields simulate a database failure.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User

	getErr    error
	createErr error
	updateErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.users[u.ID]; ok {
		return apperror.Conflict("user_id", MsgUsernameTaken)
	}
	if u.GitHubID != nil {
		for _, existing := range f.users {
			if existing.GitHubID != nil && *existing.GitHubID == *u.GitHubID {
				return apperror.Conflict("github_id", "github account already linked")
			}
		}
	}
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByGitHubID(_ context.Context, githubID int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.GitHubID != nil && *u.GitHubID == githubID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", "github")
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUserRepo) UpdateProfilePicture(_ context.Context, id string, pic []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.ProfilePicture = append([]byte(nil), pic...)
	return nil
}

func (f *fakeUserRepo) GetProfilePicture(_ context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || len(u.ProfilePicture) == 0 {
		return nil, apperror.NotFound("profile picture", id)
	}
	return u.ProfilePicture, nil
}

type fakeJournalRepo struct {
	mu      sync.Mutex
	entries []model.JournalEntry
	nextID  int64

	createErr error
	listErr   error
	lastOpts  repository.ListOptions
}

func (f *fakeJournalRepo) Create(_ context.Context, e *model.JournalEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	e.ID = f.nextID
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeJournalRepo) List(_ context.Context, opts repository.ListOptions) ([]model.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastOpts = opts
	if f.listErr != nil {
		return nil, f.listErr
	}

	var out []model.JournalEntry
	for _, e := range f.entries {
		if opts.UserID == "" || e.UserID == opts.UserID {
			e.Image = nil
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	if opts.Offset >= len(out) {
		return nil, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *fakeJournalRepo) GetImage(_ context.Context, id int64) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.ID == id && len(e.Image) > 0 {
			return e.Image, nil
		}
	}
	return nil, apperror.NotFound("journal image", "x")
}

type fakePlanRepo struct {
	mu      sync.Mutex
	records []model.PlanRecord
	err     error
}

func (f *fakePlanRepo) RecordPlan(_ context.Context, r *model.PlanRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, *r)
	return nil
}
