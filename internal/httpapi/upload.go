package httpapi

import (
	"errors"
	"io"
	"log"
	"net/http"
)

const maxUploadBytes = 25 * 1024 * 1024

// Upload stores the raw request body as a blob object and returns its public
// URL. The filename comes from the query string, matching the client's
// upload call.
func (h Handler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if h.uploads == nil {
		writeError(w, http.StatusServiceUnavailable, "Upload storage is not configured")
		return
	}

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "Missing filename or file")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "File size exceeds 25 MB")
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "Missing filename or file")
		return
	}

	object, err := h.uploads.Put(r.Context(), filename, r.Header.Get("Content-Type"), data)
	if err != nil {
		log.Printf("upload failed: user_id=%s filename=%s backend=%s err=%v", user.ID, filename, h.uploads.Backend(), err)
		writeError(w, http.StatusInternalServerError, "Upload failed")
		return
	}

	writeJSON(w, http.StatusOK, object)
}
