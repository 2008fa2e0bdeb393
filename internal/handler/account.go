package handler

import (
	"errors"
	"net/http"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/form"
	"github.com/sakif/travel-journal/internal/service"
	"github.com/sakif/travel-journal/internal/session"
)

// AccountHandler serves the account page: profile picture and password change.
// Every route here is behind session.RequireLogin.
type AccountHandler struct {
	*View
	accounts       *service.AccountService
	auth           *service.AuthService
	validator      *form.Validator
	maxUploadBytes int64
}

func NewAccountHandler(
	view *View,
	accounts *service.AccountService,
	authService *service.AuthService,
	validator *form.Validator,
	maxUploadBytes int64,
) *AccountHandler {
	return &AccountHandler{
		View:           view,
		accounts:       accounts,
		auth:           authService,
		validator:      validator,
		maxUploadBytes: maxUploadBytes,
	}
}

// ShowAccount renders the account page with any pending flash messages.
//
// HTTP: GET /account
func (h *AccountHandler) ShowAccount(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "account", h.data(w, r, "Account"))
}

// HandleAccount replaces the profile picture from the "profile_picture" upload.
//
// HTTP: POST /account
func (h *AccountHandler) HandleAccount(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.maxUploadBytes); err != nil {
		writeError(w, h.logger, err)
		return
	}

	picture, ok, err := readUpload(r, "profile_picture")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !ok {
		// Nothing uploaded: show the page again, nothing changes.
		h.render(w, http.StatusOK, "account", h.data(w, r, "Account"))
		return
	}

	sess := session.FromContext(r.Context())
	if err := h.accounts.UpdateProfilePicture(r.Context(), sess.UserID, picture); err != nil {
		writeError(w, h.logger, err)
		return
	}

	sess.AddFlash(service.MsgPictureUpdated)
	if err := h.sessions.Save(r.Context(), w, sess); err != nil {
		writeError(w, h.logger, err)
		return
	}
	redirect(w, r, "/account")
}

// HandleProfilePicture streams the logged-in user's picture.
//
// HTTP: GET /user/profile_picture
// Without a picture the answer is a plain-text 404, not an error page.
func (h *AccountHandler) HandleProfilePicture(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.UserIDFromContext(r.Context())

	pic, err := h.accounts.ProfilePicture(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("No profile picture"))
			return
		}
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Vary", "Cookie")
	writeImage(w, pic, cacheNone)
}

// HandleChangePassword overwrites the logged-in user's password.
//
// HTTP: POST /change_password
//
// The session is the only proof of identity asked for; the current password
// is not re-entered. The new one must pass the same rules as at registration.
func (h *AccountHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	f := form.ParseChangePassword(r)

	errs := h.validator.Validate(f)
	if errs == nil {
		userID, _ := session.UserIDFromContext(r.Context())
		err := h.auth.ChangePassword(r.Context(), userID, f.NewPassword)
		if err == nil {
			redirect(w, r, "/account")
			return
		}
		if !errors.Is(err, apperror.ErrValidation) {
			writeError(w, h.logger, err)
			return
		}
		errs = fieldErrors(err)
	}

	d := h.data(w, r, "Account")
	d.Errors = errs
	h.render(w, http.StatusOK, "account", d)
}
