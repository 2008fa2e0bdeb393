package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/auth"
	"github.com/sakif/travel-journal/internal/form"
	"github.com/sakif/travel-journal/internal/metrics"
	"github.com/sakif/travel-journal/internal/service"
	"github.com/sakif/travel-journal/internal/session"
)

const oauthStateCookie = "oauth_state"

// AuthHandler serves registration, login, logout and GitHub sign-in.
//
// HANDLER RESPONSIBILITIES:
//   - ShowRegister / HandleRegister → the registration form
//   - ShowLogin / HandleLogin       → the login form, then a renewed session
//   - HandleLogout                  → destroy the session
//   - HandleGitHubLogin / Callback  → optional OAuth sign-in (nil github = disabled)
type AuthHandler struct {
	*View
	auth      *service.AuthService
	validator *form.Validator
	github    *auth.GitHubProvider
	metrics   *metrics.Metrics
}

func NewAuthHandler(
	view *View,
	authService *service.AuthService,
	validator *form.Validator,
	github *auth.GitHubProvider,
	m *metrics.Metrics,
) *AuthHandler {
	return &AuthHandler{
		View:      view,
		auth:      authService,
		validator: validator,
		github:    github,
		metrics:   m,
	}
}

// ShowRegister renders an empty registration form.
//
// HTTP: GET /register
func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	d := h.data(w, r, "Register")
	d.Form = form.RegistrationForm{}
	h.render(w, http.StatusOK, "register", d)
}

// HandleRegister creates the account and sends the user to the login page.
// No session is created here; the user logs in separately.
//
// HTTP: POST /register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	f := form.ParseRegistration(r)

	errs := h.validator.Validate(f)
	if errs == nil {
		err := h.auth.Register(r.Context(), f.UserID, f.Password)
		switch {
		case err == nil:
			h.metrics.Registered()
			redirect(w, r, "/login")
			return
		case errors.Is(err, apperror.ErrConflict), errors.Is(err, apperror.ErrValidation):
			errs = fieldErrors(err)
		default:
			writeError(w, h.logger, err)
			return
		}
	}

	// Re-render with the username preserved. Passwords are never echoed back.
	d := h.data(w, r, "Register")
	d.Form = form.RegistrationForm{UserID: f.UserID}
	d.Errors = errs
	h.render(w, http.StatusOK, "register", d)
}

// ShowLogin renders the login form. The "next" query parameter is carried
// through the form so a successful login can return there.
//
// HTTP: GET /login?next=/myfeed
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	d := h.data(w, r, "Log in")
	d.Form = form.LoginForm{}
	d.Next = r.URL.Query().Get("next")
	h.render(w, http.StatusOK, "login", d)
}

// HandleLogin checks the credentials and starts an authenticated session.
//
// HTTP: POST /login
//
// SESSION RENEWAL:
// Whatever was in the session before (an anonymous cart, or a session id an
// attacker planted in the browser) is thrown away, and the user gets a fresh
// id. Only then is the username stored.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	f := form.ParseLogin(r)
	next := r.FormValue("next")

	errs := h.validator.Validate(f)
	if errs != nil {
		h.metrics.LoginAttempt(metrics.LoginInvalidForm)
		h.rerenderLogin(w, r, f, next, errs)
		return
	}

	user, err := h.auth.Login(r.Context(), f.UserID, f.Password)
	if err != nil {
		if !errors.Is(err, apperror.ErrUnauthorized) {
			writeError(w, h.logger, err)
			return
		}
		errs = fieldErrors(err)
		if errs.Get("user_id") != "" {
			h.metrics.LoginAttempt(metrics.LoginUnknownUser)
		} else {
			h.metrics.LoginAttempt(metrics.LoginWrongPassword)
		}
		h.rerenderLogin(w, r, f, next, errs)
		return
	}

	if err := h.startSession(w, r, user.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.metrics.LoginAttempt(metrics.LoginSuccess)
	h.logger.Info("user logged in", slog.String("userID", user.ID))

	redirect(w, r, session.SafeNext(next, "/"))
}

func (h *AuthHandler) rerenderLogin(w http.ResponseWriter, r *http.Request, f form.LoginForm, next string, errs form.Errors) {
	d := h.data(w, r, "Log in")
	d.Form = form.LoginForm{UserID: f.UserID}
	d.Errors = errs
	d.Next = next
	h.render(w, http.StatusOK, "login", d)
}

// startSession renews the request's session and stores userID in it.
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, userID string) error {
	sess := session.FromContext(r.Context())
	if err := h.sessions.Renew(r.Context(), sess); err != nil {
		return err
	}
	sess.UserID = userID
	return h.sessions.Save(r.Context(), w, sess)
}

// HandleLogout clears the whole session, cart included, and goes home.
//
// HTTP: GET /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	userID := sess.UserID

	if err := h.sessions.Destroy(r.Context(), w, sess); err != nil {
		// The cookie is already expired, so the browser is logged out either way.
		h.logger.Warn("logout: deleting session failed", slog.String("error", err.Error()))
	}
	if userID != "" {
		h.logger.Info("user logged out", slog.String("userID", userID))
	}
	redirect(w, r, "/")
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state goes into a short-lived cookie and into the GitHub URL.
// HandleGitHubCallback only proceeds when both match.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		http.NotFound(w, r)
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow and logs the user in.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub profile
//  3. Find or create the linked journal account
//  4. Start a renewed session, exactly like a password login
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		http.NotFound(w, r)
		return
	}

	// --- Step 1: Validate CSRF state ---
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("github callback: missing or mismatched state")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("github callback: user denied authorization", slog.String("error", errParam))
		redirect(w, r, "/login")
		return
	}

	// --- Step 2: Exchange code for GitHub profile ---
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("github callback: exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusBadGateway)
		return
	}

	// --- Step 3: Find or create the account ---
	user, err := h.auth.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	// --- Step 4: Start the session ---
	if err := h.startSession(w, r, user.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.metrics.LoginAttempt(metrics.LoginSuccess)
	h.logger.Info("user logged in via GitHub",
		slog.String("userID", user.ID),
		slog.Int64("githubID", ghUser.ID),
	)

	redirect(w, r, "/")
}
