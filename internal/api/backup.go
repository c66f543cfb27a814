package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/vinylbank/internal/backup"
	"github.com/erazemk/vinylbank/internal/model"
)

// BackupHandler handles export and import endpoints.
type BackupHandler struct {
	DB       *sql.DB
	Log      *zap.SugaredLogger
	MaxBytes int64
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

func (h *BackupHandler) export(w http.ResponseWriter, r *http.Request, includeConfig bool, kind string) {
	snap, err := backup.Export(r.Context(), h.DB, includeConfig)
	if err != nil {
		writeError(w, h.Log, err, "export", "export data")
		return
	}
	attachment(w, "application/json", backup.FileName(kind, snap.ExportedAt))
	jsonResponse(w, http.StatusOK, snap)
}

// ExportFull handles GET /api/config/export/full.
func (h *BackupHandler) ExportFull(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, true, "full")
}

// ExportData handles GET /api/config/export/data.
func (h *BackupHandler) ExportData(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, false, "data")
}

// ExportWorkbook handles GET /api/config/export/xlsx.
func (h *BackupHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	snap, err := backup.Export(r.Context(), h.DB, true)
	if err != nil {
		writeError(w, h.Log, err, "export", "export data")
		return
	}
	attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		backup.FileName("xlsx", snap.ExportedAt))
	if err := backup.WriteWorkbook(w, snap); err != nil {
		// Headers may already be sent; log only.
		h.Log.Errorw("Writing workbook failed", "error", err)
	}
}

// decodeSnapshot reads a snapshot body, bounded by MaxBytes.
func (h *BackupHandler) decodeSnapshot(w http.ResponseWriter, r *http.Request) (*model.Snapshot, bool) {
	if h.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}
	var snap model.Snapshot
	if err := decodeJSON(r, &snap); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, "import file too large")
			return nil, false
		}
		jsonError(w, http.StatusBadRequest, "Invalid export format: "+err.Error())
		return nil, false
	}
	return &snap, true
}

// importFailed reports an import error. Validation of the snapshot shape is a
// client error, anything after that is reported as a failed import.
func (h *BackupHandler) importFailed(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) && verr.Field == "snapshot" {
		jsonError(w, http.StatusBadRequest, "Invalid export format: "+verr.Message)
		return
	}
	h.Log.Errorw("Import failed", "error", err)
	jsonResponse(w, http.StatusInternalServerError, map[string]string{
		"error":   "Import failed",
		"details": err.Error(),
	})
}

// ImportFull handles POST /api/config/import/full.
func (h *BackupHandler) ImportFull(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.decodeSnapshot(w, r)
	if !ok {
		return
	}

	start := time.Now()
	if err := backup.ImportFull(r.Context(), h.DB, snap, h.Log); err != nil {
		h.importFailed(w, err)
		return
	}
	h.Log.Infow("Full import completed", "duration", time.Since(start).Round(time.Millisecond))

	jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Import completed successfully",
	})
}

// ImportData handles POST /api/config/import/data.
func (h *BackupHandler) ImportData(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.decodeSnapshot(w, r)
	if !ok {
		return
	}

	result, err := backup.ImportData(r.Context(), h.DB, snap)
	if err != nil {
		h.importFailed(w, err)
		return
	}
	h.Log.Infow("Data import completed",
		"skipped_items", len(result.SkippedItems), "skipped_fields", len(result.SkippedFields))

	jsonResponse(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Import completed",
		"warnings": result,
	})
}
