package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docvault/docvault/internal/model"
)

type createTemplateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

type generateRequest struct {
	Fields map[string]string `json:"fields"`
	model.GenerateMeta
}

func handleListTemplates(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, deps.Vault.ListTemplates(r.Context()))
	}
}

func handleCreateTemplate(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTemplateRequest
		if !decodeBody(w, r, &req) {
			return
		}
		writeEnvelope(w, deps.Vault.CreateTemplate(r.Context(), req.Name, req.Description, req.Content))
	}
}

func handleGetTemplate(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, deps.Vault.GetTemplate(r.Context(), chi.URLParam(r, "id")))
	}
}

func handleUpdateTemplate(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch model.TemplatePatch
		if !decodeBody(w, r, &patch) {
			return
		}
		writeEnvelope(w, deps.Vault.UpdateTemplate(r.Context(), chi.URLParam(r, "id"), patch))
	}
}

func handleDeleteTemplate(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, deps.Vault.DeleteTemplate(r.Context(), chi.URLParam(r, "id")))
	}
}

func handleGenerate(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if !decodeBody(w, r, &req) {
			return
		}
		writeEnvelope(w, deps.Vault.GenerateFromTemplate(r.Context(), chi.URLParam(r, "id"), req.Fields, req.GenerateMeta))
	}
}
