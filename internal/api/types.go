package api

import (
	"database/sql"
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/vinylbank/internal/model"
	"github.com/erazemk/vinylbank/internal/store"
)

// TypesHandler handles media type and field configuration endpoints.
type TypesHandler struct {
	DB  *sql.DB
	Log *zap.SugaredLogger
}

type typeRequest struct {
	Name string `json:"name"`
}

// List handles GET /api/config/types.
func (h *TypesHandler) List(w http.ResponseWriter, r *http.Request) {
	types, err := store.ListTypes(r.Context(), h.DB)
	if err != nil {
		writeError(w, h.Log, err, "media type", "fetch media types")
		return
	}
	jsonResponse(w, http.StatusOK, types)
}

// Create handles POST /api/config/types.
func (h *TypesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req typeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := store.CreateType(r.Context(), h.DB, req.Name)
	if err != nil {
		writeError(w, h.Log, err, "media type", "create media type")
		return
	}
	jsonResponse(w, http.StatusCreated, t)
}

// Update handles PUT /api/config/types/{id}.
func (h *TypesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid media type id")
		return
	}

	var req typeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.UpdateType(r.Context(), h.DB, id, req.Name); err != nil {
		writeError(w, h.Log, err, "media type", "update media type")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"id": id, "name": req.Name})
}

// Delete handles DELETE /api/config/types/{id}.
func (h *TypesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid media type id")
		return
	}

	if err := store.DeleteType(r.Context(), h.DB, id); err != nil {
		writeError(w, h.Log, err, "media type", "delete media type")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddField handles POST /api/config/types/{typeId}/fields.
func (h *TypesHandler) AddField(w http.ResponseWriter, r *http.Request) {
	typeID, ok := pathID(r, "typeId")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid media type id")
		return
	}

	var in model.FieldInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, err := store.AddField(r.Context(), h.DB, typeID, in)
	if err != nil {
		writeError(w, h.Log, err, "media type", "add field")
		return
	}
	jsonResponse(w, http.StatusCreated, f)
}

// UpdateField handles PUT /api/config/fields/{id}.
func (h *TypesHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid field id")
		return
	}

	var patch model.FieldPatch
	if err := decodeJSON(r, &patch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, err := store.UpdateField(r.Context(), h.DB, id, patch)
	if err != nil {
		writeError(w, h.Log, err, "field", "update field")
		return
	}
	jsonResponse(w, http.StatusOK, f)
}

// DeleteField handles DELETE /api/config/fields/{id}.
func (h *TypesHandler) DeleteField(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid field id")
		return
	}

	if err := store.DeleteField(r.Context(), h.DB, id); err != nil {
		writeError(w, h.Log, err, "field", "delete field")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
