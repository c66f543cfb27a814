package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/erazemk/vinylbank/internal/store"
	"github.com/erazemk/vinylbank/internal/upload"
)

// multipartOverhead is allowed on top of the file size limit for the form
// framing.
const multipartOverhead = 1 << 20

// UploadHandler handles image upload and download endpoints.
type UploadHandler struct {
	DB      *sql.DB
	Log     *zap.SugaredLogger
	Storage *upload.Storage
}

// save checks the item, validates the multipart file and stores it.
func (h *UploadHandler) save(w http.ResponseWriter, r *http.Request, fieldKey string) (int64, *upload.Stored, bool) {
	itemID, ok := pathID(r, "itemId")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid media item id")
		return 0, nil, false
	}

	exists, err := store.ItemExists(r.Context(), h.DB, itemID)
	if err != nil {
		writeError(w, h.Log, err, "media item", "upload image")
		return 0, nil, false
	}
	if !exists {
		jsonError(w, http.StatusNotFound, "Media item not found")
		return 0, nil, false
	}

	if h.Storage.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.Storage.MaxBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, h.Log, h.Storage.CheckSize(h.Storage.MaxBytes+1), "upload", "upload image")
			return 0, nil, false
		}
		jsonError(w, http.StatusBadRequest, "Expected multipart/form-data")
		return 0, nil, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "No file provided")
		return 0, nil, false
	}
	defer file.Close()

	if err := h.Storage.CheckSize(header.Size); err != nil {
		writeError(w, h.Log, err, "upload", "upload image")
		return 0, nil, false
	}

	stored, err := h.Storage.Save(itemID, fieldKey, header.Header.Get("Content-Type"), header.Filename, file)
	if err != nil {
		writeError(w, h.Log, err, "upload", "upload image")
		return 0, nil, false
	}
	return itemID, stored, true
}

// CoverImage handles POST /api/upload/image/{itemId}.
func (h *UploadHandler) CoverImage(w http.ResponseWriter, r *http.Request) {
	itemID, stored, ok := h.save(w, r, "")
	if !ok {
		return
	}

	if err := store.SetCoverImage(r.Context(), h.DB, itemID, stored.URL); err != nil {
		writeError(w, h.Log, err, "media item", "save cover image")
		return
	}
	jsonResponse(w, http.StatusOK, stored)
}

// AttributeImage handles POST /api/upload/attribute/{itemId}/{fieldKey}.
func (h *UploadHandler) AttributeImage(w http.ResponseWriter, r *http.Request) {
	fieldKey := chi.URLParam(r, "fieldKey")
	itemID, stored, ok := h.save(w, r, fieldKey)
	if !ok {
		return
	}

	if err := store.SetAttribute(r.Context(), h.DB, itemID, fieldKey, stored.URL); err != nil {
		writeError(w, h.Log, err, "media item", "save attribute image")
		return
	}
	jsonResponse(w, http.StatusOK, stored)
}

// Serve handles GET /api/upload/images/{filename}.
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	f, contentType, err := h.Storage.Open(chi.URLParam(r, "filename"))
	if err != nil {
		writeError(w, h.Log, err, "Image", "read image")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, h.Log, err, "Image", "read image")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
