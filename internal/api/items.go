package api

import (
	"database/sql"
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/vinylbank/internal/model"
	"github.com/erazemk/vinylbank/internal/store"
)

// MediaHandler handles media item endpoints.
type MediaHandler struct {
	DB  *sql.DB
	Log *zap.SugaredLogger
}

func filterFromQuery(r *http.Request) model.ItemFilter {
	q := r.URL.Query()
	return model.ParseItemFilter(q.Get("type"), q.Get("status"))
}

// List handles GET /api/media.
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListItems(r.Context(), h.DB, filterFromQuery(r))
	if err != nil {
		writeError(w, h.Log, err, "media item", "fetch media items")
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Search handles GET /api/media/search.
func (h *MediaHandler) Search(w http.ResponseWriter, r *http.Request) {
	items, err := store.SearchItems(r.Context(), h.DB, r.URL.Query().Get("q"), filterFromQuery(r))
	if err != nil {
		writeError(w, h.Log, err, "media item", "search media items")
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// ListTypes handles GET /api/media/types/list.
func (h *MediaHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := store.ListTypesBrief(r.Context(), h.DB)
	if err != nil {
		writeError(w, h.Log, err, "media type", "fetch media types")
		return
	}
	jsonResponse(w, http.StatusOK, types)
}

// Get handles GET /api/media/{id}.
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid media item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, h.Log, err, "media item", "fetch media item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Create handles POST /api/media.
func (h *MediaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.ItemInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, in)
	if err != nil {
		writeError(w, h.Log, err, "media item", "create media item")
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PUT /api/media/{id}.
func (h *MediaHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid media item id")
		return
	}

	var in model.ItemInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.UpdateItem(r.Context(), h.DB, id, in)
	if err != nil {
		writeError(w, h.Log, err, "media item", "update media item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/media/{id}.
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid media item id")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, id); err != nil {
		writeError(w, h.Log, err, "media item", "delete media item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
