package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/metrics"
	"github.com/sakif/travel-journal/internal/service"
	"github.com/sakif/travel-journal/internal/session"
)

// JournalHandler serves journal capture, both feeds and entry images.
type JournalHandler struct {
	*View
	journals       *service.JournalService
	metrics        *metrics.Metrics
	maxUploadBytes int64
}

func NewJournalHandler(view *View, journals *service.JournalService, m *metrics.Metrics, maxUploadBytes int64) *JournalHandler {
	return &JournalHandler{
		View:           view,
		journals:       journals,
		metrics:        m,
		maxUploadBytes: maxUploadBytes,
	}
}

// HandleIndex lists every user's entries, newest first.
//
// HTTP: GET /?page=N
func (h *JournalHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := h.journals.Feed(r.Context(), pageParam(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	d := h.data(w, r, "Travel Journal")
	d.Feed = page
	h.render(w, http.StatusOK, "index", d)
}

// HandleMyFeed lists the logged-in user's own entries.
//
// HTTP: GET /myfeed?page=N (guarded)
func (h *JournalHandler) HandleMyFeed(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.UserIDFromContext(r.Context())

	page, err := h.journals.UserFeed(r.Context(), userID, pageParam(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	d := h.data(w, r, "My feed")
	d.Feed = page
	h.render(w, http.StatusOK, "myfeed", d)
}

// ShowJournal renders an empty entry form.
//
// HTTP: GET /journal (guarded)
func (h *JournalHandler) ShowJournal(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "journal", h.data(w, r, "New entry"))
}

// HandleJournal stores a new entry from the multipart fields "text" and "file".
//
// HTTP: POST /journal (guarded)
//
// Only when both are present is an entry written, after which the browser is
// sent back to an empty form. Otherwise the form is shown again, untouched
// database, with a message under whichever input was missing.
func (h *JournalHandler) HandleJournal(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.maxUploadBytes); err != nil {
		writeError(w, h.logger, err)
		return
	}

	userID, _ := session.UserIDFromContext(r.Context())
	text := r.FormValue("text")

	image, _, err := readUpload(r, "file")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	_, err = h.journals.Create(r.Context(), userID, text, image)
	if err == nil {
		h.metrics.EntryCreated()
		redirect(w, r, "/journal")
		return
	}
	if !errors.Is(err, apperror.ErrValidation) {
		writeError(w, h.logger, err)
		return
	}

	d := h.data(w, r, "New entry")
	d.Errors = fieldErrors(err)
	d.Form = struct{ Text string }{Text: text}
	h.render(w, http.StatusOK, "journal", d)
}

// HandleServeImage streams the image of one entry.
//
// HTTP: GET /serve_image/{id}
// A non-numeric id, an unknown entry and an entry without an image are all 404.
func (h *JournalHandler) HandleServeImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return
	}

	img, err := h.journals.Image(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeImage(w, img, cacheImmutable)
}

// pageParam reads ?page=N, treating anything unparsable as page 1.
func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
