package session

import (
	"context"
	"net/http"
	"net/url"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. A plain string key could be read or
// shadowed by any package that happens to use the same string. Only this package
// can create a value of type contextKey, so only it can reach the session.
type contextKey string

const sessionKey contextKey = "session"

// Middleware loads the request's session and stores it in the request context.
// It runs on every route, so handlers can always call FromContext.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.load(r)
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), sess)))
	})
}

// NewContext returns a copy of ctx carrying sess.
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// FromContext returns the request's session. Outside Middleware it returns a
// fresh anonymous session rather than nil, so callers never need a nil check.
func FromContext(ctx context.Context) *Session {
	if sess, ok := ctx.Value(sessionKey).(*Session); ok && sess != nil {
		return sess
	}
	return &Session{}
}

// UserIDFromContext returns the logged-in username, or ("", false) when anonymous.
func UserIDFromContext(ctx context.Context) (string, bool) {
	sess := FromContext(ctx)
	return sess.UserID, sess.IsAuthenticated()
}

// RequireLogin guards routes that need an authenticated session.
//
// An anonymous request is redirected to /login with the original request URI
// in "next", so the login handler can send the user back afterwards.
// An authenticated request reaches the wrapped handler unchanged.
//
// Usage in the router:
//
//	r.With(session.RequireLogin).Get("/myfeed", h.HandleMyFeed)
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !FromContext(r.Context()).IsAuthenticated() {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SafeNext returns next when it is a path on this site, otherwise fallback.
// Absolute URLs and protocol-relative "//host" paths are refused so the login
// form cannot be used as an open redirect.
func SafeNext(next, fallback string) string {
	if next == "" || next[0] != '/' {
		return fallback
	}
	if len(next) > 1 && (next[1] == '/' || next[1] == '\\') {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return fallback
	}
	return next
}
