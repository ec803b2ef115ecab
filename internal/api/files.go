package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// uploadFileRequest carries file contents base64-encoded in Data, which is
// how encoding/json decodes a []byte field.
type uploadFileRequest struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Data       []byte `json:"data"`
	DocumentID string `json:"documentId"`
}

func handleUploadFile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req uploadFileRequest
		if !decodeBody(w, r, &req) {
			return
		}
		writeEnvelope(w, deps.Vault.UploadFile(r.Context(), req.Name, req.Type, req.Data, req.DocumentID))
	}
}

func handleGetFile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, deps.Vault.GetFile(r.Context(), chi.URLParam(r, "id")))
	}
}

func handleDeleteFile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, deps.Vault.DeleteFile(r.Context(), chi.URLParam(r, "id")))
	}
}

func handleRecognize(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, deps.Vault.RecognizeText(r.Context(), chi.URLParam(r, "id")))
	}
}
