package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/travel-journal/internal/auth"
	"github.com/sakif/travel-journal/internal/model"
)

// CookieName is the name of the cookie that carries the signed session token.
const CookieName = "session"

// Session is the request's view of one browser session.
//
// Changes are NOT persisted automatically. A handler that mutates a Session
// calls Manager.Save before it writes the response, because Save may need to
// set a cookie and headers cannot change once the body has started.
type Session struct {
	// ID is empty until the session is first saved.
	ID string
	Data
}

// IsAuthenticated reports whether a user is logged in on this session.
func (s *Session) IsAuthenticated() bool {
	return s.UserID != ""
}

// AddFlash queues a message to be shown once on the next rendered page.
func (s *Session) AddFlash(msg string) {
	s.Flash = append(s.Flash, msg)
}

// PopFlashes returns the queued flash messages and clears the queue.
func (s *Session) PopFlashes() []string {
	msgs := s.Flash
	s.Flash = nil
	return msgs
}

// AddToCart appends an item, creating the cart when absent.
func (s *Session) AddToCart(item model.CartItem) {
	s.Cart = append(s.Cart, item)
}

// Options configure a Manager.
type Options struct {
	TTL    time.Duration
	Secure bool
}

// Manager ties a Store to the session cookie.
//
// DEPENDENCY CHAIN:
//   - store  Store               → where session data lives
//   - tokens *auth.TokenService  → signs the id that goes into the cookie
type Manager struct {
	store  Store
	tokens *auth.TokenService
	opts   Options
	logger *slog.Logger
}

// NewManager creates a Manager. A zero TTL defaults to 24 hours.
func NewManager(store Store, tokens *auth.TokenService, opts Options, logger *slog.Logger) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	return &Manager{store: store, tokens: tokens, opts: opts, logger: logger}
}

// load resolves the request's cookie into a Session. Anything short of a valid,
// known session yields a fresh anonymous one; a bad cookie is not an error for
// the visitor, it just means they start over.
func (m *Manager) load(r *http.Request) *Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return &Session{}
	}

	id, err := m.tokens.Validate(cookie.Value)
	if err != nil {
		m.logger.Debug("session: ignoring invalid cookie", slog.String("error", err.Error()))
		return &Session{}
	}

	data, err := m.store.Load(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.Error("session: store load failed",
				slog.String("error", err.Error()),
			)
		}
		return &Session{}
	}

	return &Session{ID: id, Data: *data}
}

// Save persists s and (re)issues the cookie. An unsaved session gets its id here.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s.ID == "" {
		s.ID = xid.New().String()
	}

	if err := m.store.Save(ctx, s.ID, &s.Data, m.opts.TTL); err != nil {
		return fmt.Errorf("session: saving: %w", err)
	}

	token, err := m.tokens.Generate(s.ID, m.opts.TTL)
	if err != nil {
		return fmt.Errorf("session: signing cookie: %w", err)
	}

	// HttpOnly = JavaScript cannot read this cookie (XSS protection).
	// SameSite=Lax = sent on top-level navigations but not on cross-site POSTs.
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Renew discards s's data and gives it a new id, deleting the old one from the
// store. Login calls this before setting the user so an id planted before
// authentication (session fixation) is worthless afterwards.
func (m *Manager) Renew(ctx context.Context, s *Session) error {
	if s.ID != "" {
		if err := m.store.Delete(ctx, s.ID); err != nil {
			return fmt.Errorf("session: renewing: %w", err)
		}
	}
	s.ID = xid.New().String()
	s.Data = Data{}
	return nil
}

// Destroy deletes the session from the store and expires the cookie.
// s is left empty, as an anonymous session.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	var err error
	if s.ID != "" {
		if delErr := m.store.Delete(ctx, s.ID); delErr != nil {
			err = fmt.Errorf("session: destroying: %w", delErr)
		}
	}
	*s = Session{}

	// Expire the cookie even when the store delete failed; the token then
	// points nowhere the browser can send it.
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return err
}
