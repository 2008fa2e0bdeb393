package handler

// ERROR RESPONSES:
// Most failures in this app end up on a page: a validation error re-renders the
// form with the message under the input. What's left (a missing image, a broken
// database) is answered with a short plain-text body and the right status code.
//
// WHY MAP HERE AND NOT IN THE SERVICE?
// The service layer returns domain errors (apperror.ErrNotFound, ...). Only the
// HTTP layer knows that "not found" means 404. errors.Is walks the wrap chain:
//
//	service returns: fmt.Errorf("service/journal: loading image 7: %w", apperror.NotFound(...))
//	which wraps:     AppError{Err: ErrNotFound, ...}
//	errors.Is walks: outer error → AppError → ErrNotFound ✓ match!

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/form"
)

// statusFor maps a domain error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// writeError answers with the status for err and a plain-text body.
//
// NEVER expose internal error details for a 500: the raw message might contain
// SQL, file paths or other things the visitor has no business seeing.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", slog.String("error", err.Error()))
	}
	http.Error(w, http.StatusText(status), status)
}

// fieldErrors converts a domain error that names a form field into form.Errors.
// It returns nil when err isn't such an error, so callers can fall back to writeError.
func fieldErrors(err error) form.Errors {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Field == "" {
		return nil
	}
	errs := form.Errors{}
	errs.Add(appErr.Field, appErr.Message)
	return errs
}

// Cache policies for writeImage.
const (
	// Journal images never change once stored.
	cacheImmutable = "private, max-age=3600"
	// The profile picture URL is the same for every user and the picture can be
	// replaced at any time, so nothing may reuse a stored copy.
	cacheNone = "private, no-store"
)

// writeImage streams image bytes with a sniffed content type.
// Anything that doesn't sniff as an image is labelled image/jpeg.
func writeImage(w http.ResponseWriter, img []byte, cacheControl string) {
	ct := http.DetectContentType(img)
	if len(ct) < 6 || ct[:6] != "image/" {
		ct = "image/jpeg"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.Header().Set("Cache-Control", cacheControl)
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

// readUpload returns the bytes of the uploaded file in field.
// ok is false when the field is absent or the file is empty.
func readUpload(r *http.Request, field string) (data []byte, ok bool, err error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		return nil, false, err
	}
	return data, len(data) > 0, nil
}

// parseMultipart caps the request body at maxBytes and parses it.
// A body over the cap fails with an error for which statusFor returns 413,
// a body that isn't valid multipart with a validation error (400).
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if r.ContentLength > maxBytes {
		return &http.MaxBytesError{Limit: maxBytes}
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	// Files up to 1 MiB stay in memory; bigger ones are spooled to temp files
	// that net/http removes once the handler returns.
	err := r.ParseMultipartForm(1 << 20)
	if errors.Is(err, http.ErrNotMultipart) {
		// A plain urlencoded post has no files, but its fields are parsed
		// and the handler treats the upload as missing.
		return nil
	}
	var maxErr *http.MaxBytesError
	if err != nil && !errors.As(err, &maxErr) {
		return fmt.Errorf("parsing upload: %w", apperror.ValidationFailed("", "malformed multipart body"))
	}
	return err
}
