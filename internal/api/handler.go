package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/docvault/docvault/internal/facade"
	"github.com/docvault/docvault/internal/model"
)

const maxRequestBodySize = 10 << 20 // 10MB

type AppDeps struct {
	Vault *facade.Facade
	// CORSOrigins lists browser origins allowed to call the API. Empty disables CORS headers.
	CORSOrigins []string
}

// NewAppHandler returns the JSON API over the facade. Every response body is
// a facade envelope.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", handleListDocuments(deps))
		r.Post("/", handleCreateDocument(deps))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handleGetDocument(deps))
			r.Patch("/", handleUpdateDocument(deps))
			r.Delete("/", handleDeleteDocument(deps))
			r.Get("/versions", handleGetVersions(deps))
			r.Post("/versions", handleCreateVersion(deps))
			r.Post("/versions/{versionID}/revert", handleRevertVersion(deps))
			r.Get("/comments", handleGetComments(deps))
			r.Post("/comments", handleAddComment(deps))
		})
	})

	r.Route("/templates", func(r chi.Router) {
		r.Get("/", handleListTemplates(deps))
		r.Post("/", handleCreateTemplate(deps))
		r.Get("/{id}", handleGetTemplate(deps))
		r.Patch("/{id}", handleUpdateTemplate(deps))
		r.Delete("/{id}", handleDeleteTemplate(deps))
		r.Post("/{id}/generate", handleGenerate(deps))
	})

	r.Get("/settings", handleGetSettings(deps))
	r.Patch("/settings", handleUpdateSettings(deps))
	r.Get("/export", handleExport(deps))
	r.Post("/import", handleImport(deps))

	r.Post("/files", handleUploadFile(deps))
	r.Get("/files/{id}", handleGetFile(deps))
	r.Delete("/files/{id}", handleDeleteFile(deps))
	r.Post("/files/{id}/recognize", handleRecognize(deps))

	if len(deps.CORSOrigins) == 0 {
		return r
	}
	c := cors.New(cors.Options{
		AllowedOrigins: deps.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept"},
	})
	return c.Handler(r)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// statusFor maps a failure kind to an HTTP status.
func statusFor(kind facade.Kind) int {
	switch kind {
	case facade.KindNotFound:
		return http.StatusNotFound
	case facade.KindValidation, facade.KindImportFormat:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeEnvelope[T any](w http.ResponseWriter, env facade.Envelope[T]) {
	code := http.StatusOK
	if !env.Success {
		code = statusFor(env.Code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(env)
}

// httpError writes a failure envelope for errors detected before the facade is reached.
func httpError(w http.ResponseWriter, code int, kind facade.Kind, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(facade.Envelope[facade.Empty]{
		Error: fmt.Sprintf(format, args...),
		Code:  kind,
	})
}

// decodeBody reads a JSON request body into v. It writes the error response
// and returns false when the body is unreadable.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, facade.KindValidation, "invalid request body: %v", err)
		return false
	}
	return true
}

// parseFilter reads list filters from the query string. Dates accept RFC 3339
// or YYYY-MM-DD; a date-only upper bound covers the whole day.
func parseFilter(r *http.Request) (model.DocumentFilter, error) {
	q := r.URL.Query()
	f := model.DocumentFilter{
		Status: model.Status(q.Get("status")),
		Type:   model.Type(q.Get("type")),
		Search: q.Get("search"),
	}
	if s := q.Get("from"); s != "" {
		t, _, err := parseDate(s)
		if err != nil {
			return f, fmt.Errorf("invalid from: %w", err)
		}
		f.From = t
	}
	if s := q.Get("to"); s != "" {
		t, dateOnly, err := parseDate(s)
		if err != nil {
			return f, fmt.Errorf("invalid to: %w", err)
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = t
	}
	return f, nil
}

func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	return t, true, err
}
