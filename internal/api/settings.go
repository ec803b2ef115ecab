package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/docvault/docvault/internal/facade"
	"github.com/docvault/docvault/internal/model"
)

func handleGetSettings(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, deps.Vault.GetSettings(r.Context()))
	}
}

func handleUpdateSettings(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch model.SettingsPatch
		if !decodeBody(w, r, &patch) {
			return
		}
		writeEnvelope(w, deps.Vault.UpdateSettings(r.Context(), patch))
	}
}

func handleExport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, deps.Vault.ExportDatabase(r.Context()))
	}
}

// handleImport passes the raw body through; the facade owns parsing so that
// malformed files are reported as import format errors.
func handleImport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		blob, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httpError(w, http.StatusRequestEntityTooLarge, facade.KindImportFormat, "import file exceeds %d bytes", tooLarge.Limit)
				return
			}
			httpError(w, http.StatusBadRequest, facade.KindImportFormat, "reading import file: %v", err)
			return
		}
		writeEnvelope(w, deps.Vault.ImportDatabase(r.Context(), blob))
	}
}
