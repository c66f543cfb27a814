package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/erazemk/vinylbank/internal/upload"
)

// Options carries the request limits and CORS origin.
type Options struct {
	CORSOrigin     string
	ImportMaxBytes int64
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, uploads *upload.Storage, opts Options, log *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware(opts.CORSOrigin))
	r.Use(middleware.Compress(5, "application/json"))

	typesHandler := &TypesHandler{DB: db, Log: log}
	mediaHandler := &MediaHandler{DB: db, Log: log}
	backupHandler := &BackupHandler{DB: db, Log: log, MaxBytes: opts.ImportMaxBytes}
	uploadHandler := &UploadHandler{DB: db, Log: log, Storage: uploads}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/config", func(r chi.Router) {
		r.Get("/types", typesHandler.List)
		r.Post("/types", typesHandler.Create)
		r.Put("/types/{id}", typesHandler.Update)
		r.Delete("/types/{id}", typesHandler.Delete)
		r.Post("/types/{typeId}/fields", typesHandler.AddField)
		r.Put("/fields/{id}", typesHandler.UpdateField)
		r.Delete("/fields/{id}", typesHandler.DeleteField)

		r.Get("/export/full", backupHandler.ExportFull)
		r.Get("/export/data", backupHandler.ExportData)
		r.Get("/export/xlsx", backupHandler.ExportWorkbook)
		r.Post("/import/full", backupHandler.ImportFull)
		r.Post("/import/data", backupHandler.ImportData)
	})

	r.Route("/api/media", func(r chi.Router) {
		r.Get("/", mediaHandler.List)
		r.Post("/", mediaHandler.Create)
		r.Get("/search", mediaHandler.Search)
		r.Get("/types/list", mediaHandler.ListTypes)
		r.Get("/{id}", mediaHandler.Get)
		r.Put("/{id}", mediaHandler.Update)
		r.Delete("/{id}", mediaHandler.Delete)
	})

	r.Route("/api/upload", func(r chi.Router) {
		r.Post("/image/{itemId}", uploadHandler.CoverImage)
		r.Post("/attribute/{itemId}/{fieldKey}", uploadHandler.AttributeImage)
		r.Get("/images/{filename}", uploadHandler.Serve)
	})

	return r
}
