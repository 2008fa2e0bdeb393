// Package session keeps per-browser state on the server: the logged-in user,
// the shopping cart, and one-shot flash messages.
//
// HOW A SESSION IS CARRIED:
// The browser only ever holds a cookie containing a signed token (see auth.TokenService)
// whose subject is an opaque session id. The data itself lives in a Store:
//
//	cookie "session" = JWT{sub: "cv37rs3pp9olc6atsptg"}
//	Store["cv37rs3pp9olc6atsptg"] = {"user_id":"alice","cart":[...],"flash":[...]}
//
// Which Store is used (in-process map or Redis) is a configuration choice; the
// rest of the application only sees the Store interface.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sakif/travel-journal/internal/model"
)

// ErrNotFound is returned by Store.Load for an unknown or expired session id.
var ErrNotFound = errors.New("session: not found")

// Data is everything stored for one session.
type Data struct {
	UserID string           `json:"user_id,omitempty"`
	Cart   []model.CartItem `json:"cart,omitempty"`
	Flash  []string         `json:"flash,omitempty"`
}

// Store persists session data by id. Implementations must be safe for
// concurrent use; two requests from the same browser may run in parallel.
type Store interface {
	Load(ctx context.Context, id string) (*Data, error)
	Save(ctx context.Context, id string, data *Data, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// =========================================================================
// IN-MEMORY STORE
// =========================================================================

type memoryEntry struct {
	data      Data
	expiresAt time.Time
}

// MemoryStore keeps sessions in a map inside the process.
// Sessions are lost on restart and are not shared between instances.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

// Load returns a copy of the stored data so the caller can mutate it freely.
func (s *MemoryStore) Load(_ context.Context, id string) (*Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.sessions, id)
		return nil, ErrNotFound
	}
	return entry.data.clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, id string, data *Data, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = memoryEntry{
		data:      *data.clone(),
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// Len reports how many sessions are held, expired ones included until swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops every expired session.
func (s *MemoryStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, entry := range s.sessions {
		if now.After(entry.expiresAt) {
			delete(s.sessions, id)
		}
	}
}

// StartSweeper calls Sweep every interval until ctx is cancelled.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// clone deep-copies the slices so stored data never aliases a caller's data.
func (d *Data) clone() *Data {
	c := Data{UserID: d.UserID}
	if d.Cart != nil {
		c.Cart = append([]model.CartItem(nil), d.Cart...)
	}
	if d.Flash != nil {
		c.Flash = append([]string(nil), d.Flash...)
	}
	return &c
}
