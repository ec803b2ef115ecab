package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docvault/docvault/internal/facade"
	"github.com/docvault/docvault/internal/model"
)

type createDocumentRequest struct {
	Title string     `json:"title"`
	Type  model.Type `json:"type"`
	model.DocumentData
}

type createVersionRequest struct {
	Content string `json:"content"`
	Note    string `json:"note"`
	Author  string `json:"author"`
}

type addCommentRequest struct {
	Text      string `json:"text"`
	Author    string `json:"author"`
	VersionID string `json:"versionId"`
}

func handleListDocuments(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, facade.KindValidation, "%v", err)
			return
		}
		writeEnvelope(w, deps.Vault.ListDocuments(r.Context(), filter))
	}
}

func handleCreateDocument(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createDocumentRequest
		if !decodeBody(w, r, &req) {
			return
		}
		writeEnvelope(w, deps.Vault.CreateDocument(r.Context(), req.Title, req.Type, req.DocumentData))
	}
}

func handleGetDocument(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, deps.Vault.GetDocument(r.Context(), chi.URLParam(r, "id")))
	}
}

func handleUpdateDocument(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch model.DocumentPatch
		if !decodeBody(w, r, &patch) {
			return
		}
		writeEnvelope(w, deps.Vault.UpdateDocument(r.Context(), chi.URLParam(r, "id"), patch))
	}
}

func handleDeleteDocument(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, deps.Vault.DeleteDocument(r.Context(), chi.URLParam(r, "id")))
	}
}

func handleGetVersions(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, deps.Vault.GetVersions(r.Context(), chi.URLParam(r, "id")))
	}
}

func handleCreateVersion(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createVersionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		writeEnvelope(w, deps.Vault.CreateVersion(r.Context(), chi.URLParam(r, "id"), req.Content, req.Note, req.Author))
	}
}

func handleRevertVersion(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, deps.Vault.RevertVersion(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "versionID")))
	}
}

func handleGetComments(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, deps.Vault.GetComments(r.Context(), chi.URLParam(r, "id")))
	}
}

func handleAddComment(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addCommentRequest
		if !decodeBody(w, r, &req) {
			return
		}
		writeEnvelope(w, deps.Vault.AddComment(r.Context(), chi.URLParam(r, "id"), req.Text, req.Author, req.VersionID))
	}
}
