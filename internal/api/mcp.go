package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/docvault/docvault/internal/facade"
	"github.com/docvault/docvault/internal/model"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Vault *facade.Facade
}

// NewMCPServer creates an MCP server exposing document, version and template
// operations as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"docvault",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("docvault: local legal document store with versions, comments and templates."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("list_documents",
			mcp.WithDescription("List documents, most recently updated first."),
			mcp.WithString("status", mcp.Description("Filter by status: draft, active, archived, completed")),
			mcp.WithString("type", mcp.Description("Filter by type: contract, case, agreement, claim, resolution, other")),
			mcp.WithString("search", mcp.Description("Case-insensitive text to match in title, numbers, counterparty, tags or recognized text")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
		),
		mcpListDocuments(deps),
	)

	s.AddTool(
		mcp.NewTool("get_document",
			mcp.WithDescription("Fetch a document with its versions and comments."),
			mcp.WithString("id", mcp.Description("Document id"), mcp.Required()),
		),
		mcpGetDocument(deps),
	)

	s.AddTool(
		mcp.NewTool("create_version",
			mcp.WithDescription("Append a new version of a document's content."),
			mcp.WithString("document_id", mcp.Description("Document id"), mcp.Required()),
			mcp.WithString("content", mcp.Description("Full content of the new version"), mcp.Required()),
			mcp.WithString("note", mcp.Description("What changed")),
			mcp.WithString("author", mcp.Description("Who made the change")),
		),
		mcpCreateVersion(deps),
	)

	s.AddTool(
		mcp.NewTool("revert_version",
			mcp.WithDescription("Restore an earlier version by appending a copy of it as the newest version."),
			mcp.WithString("document_id", mcp.Description("Document id"), mcp.Required()),
			mcp.WithString("version_id", mcp.Description("Id of the version to restore"), mcp.Required()),
		),
		mcpRevertVersion(deps),
	)

	s.AddTool(
		mcp.NewTool("add_comment",
			mcp.WithDescription("Attach a comment to a document, optionally to one of its versions."),
			mcp.WithString("document_id", mcp.Description("Document id"), mcp.Required()),
			mcp.WithString("text", mcp.Description("Comment text"), mcp.Required()),
			mcp.WithString("author", mcp.Description("Comment author")),
			mcp.WithString("version_id", mcp.Description("Version the comment refers to")),
		),
		mcpAddComment(deps),
	)

	s.AddTool(
		mcp.NewTool("generate_from_template",
			mcp.WithDescription("Create an active document from a template by filling its {{field}} placeholders."),
			mcp.WithString("template_id", mcp.Description("Template id"), mcp.Required()),
			mcp.WithString("title", mcp.Description("Title of the new document"), mcp.Required()),
			mcp.WithString("type", mcp.Description("Document type"), mcp.Required()),
			mcp.WithString("fields", mcp.Description("JSON object mapping field names to values")),
			mcp.WithString("case_number", mcp.Description("Case number")),
			mcp.WithString("contract_number", mcp.Description("Contract number")),
			mcp.WithString("counterparty", mcp.Description("Counterparty name")),
		),
		mcpGenerateFromTemplate(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"docvault://templates",
			"Templates",
			mcp.WithResourceDescription("All document templates with their placeholder fields"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceTemplates(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"docvault://settings",
			"Settings",
			mcp.WithResourceDescription("Counterparties, expertise types and users"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceSettings(deps),
	)

	return s
}

func mcpListDocuments(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := model.DocumentFilter{
			Status: model.Status(req.GetString("status", "")),
			Type:   model.Type(req.GetString("type", "")),
			Search: req.GetString("search", ""),
		}

		limit := req.GetInt("limit", 20)
		if limit <= 0 {
			limit = 20
		}
		if limit > 100 {
			limit = 100
		}

		env := deps.Vault.ListDocuments(ctx, filter)
		if !env.Success {
			return mcpError(env.Error), nil
		}

		type documentSummary struct {
			ID        string       `json:"id"`
			Title     string       `json:"title"`
			Type      model.Type   `json:"type"`
			Status    model.Status `json:"status"`
			Versions  int          `json:"versions"`
			UpdatedAt string       `json:"updatedAt"`
		}

		docs := env.Data
		if len(docs) > limit {
			docs = docs[:limit]
		}
		summaries := make([]documentSummary, len(docs))
		for i, d := range docs {
			summaries[i] = documentSummary{
				ID:        d.ID,
				Title:     d.Title,
				Type:      d.Type,
				Status:    d.Status,
				Versions:  len(d.Versions),
				UpdatedAt: d.UpdatedAt.Format(time.RFC3339),
			}
		}
		return mcpJSON(summaries), nil
	}
}

func mcpGetDocument(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		return mcpEnvelope(deps.Vault.GetDocument(ctx, id)), nil
	}
}

func mcpCreateVersion(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docID, err := req.RequireString("document_id")
		if err != nil {
			return mcpError("document_id is required"), nil
		}
		content, err := req.RequireString("content")
		if err != nil {
			return mcpError("content is required"), nil
		}

		env := deps.Vault.CreateVersion(ctx, docID, content, req.GetString("note", ""), req.GetString("author", ""))
		if !env.Success {
			return mcpError(env.Error), nil
		}
		return mcpText(fmt.Sprintf("Created version %d (%s)", env.Data.VersionNumber, env.Data.ID)), nil
	}
}

func mcpRevertVersion(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docID, err := req.RequireString("document_id")
		if err != nil {
			return mcpError("document_id is required"), nil
		}
		versionID, err := req.RequireString("version_id")
		if err != nil {
			return mcpError("version_id is required"), nil
		}

		env := deps.Vault.RevertVersion(ctx, docID, versionID)
		if !env.Success {
			return mcpError(env.Error), nil
		}
		latest := env.Data.Versions[len(env.Data.Versions)-1]
		return mcpText(fmt.Sprintf("%s as version %d", latest.Note, latest.VersionNumber)), nil
	}
}

func mcpAddComment(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docID, err := req.RequireString("document_id")
		if err != nil {
			return mcpError("document_id is required"), nil
		}
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}

		env := deps.Vault.AddComment(ctx, docID, text, req.GetString("author", ""), req.GetString("version_id", ""))
		if !env.Success {
			return mcpError(env.Error), nil
		}
		return mcpText(fmt.Sprintf("Added comment %s", env.Data.ID)), nil
	}
}

func mcpGenerateFromTemplate(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		templateID, err := req.RequireString("template_id")
		if err != nil {
			return mcpError("template_id is required"), nil
		}
		title, err := req.RequireString("title")
		if err != nil {
			return mcpError("title is required"), nil
		}
		typ, err := req.RequireString("type")
		if err != nil {
			return mcpError("type is required"), nil
		}

		var values map[string]string
		if raw := req.GetString("fields", ""); raw != "" {
			if err := json.Unmarshal([]byte(raw), &values); err != nil {
				return mcpError(fmt.Sprintf("invalid fields JSON: %v", err)), nil
			}
		}

		meta := model.GenerateMeta{
			Title:          title,
			Type:           model.Type(typ),
			CaseNumber:     req.GetString("case_number", ""),
			ContractNumber: req.GetString("contract_number", ""),
			Counterparty:   req.GetString("counterparty", ""),
		}
		env := deps.Vault.GenerateFromTemplate(ctx, templateID, values, meta)
		if !env.Success {
			return mcpError(env.Error), nil
		}
		return mcpText(fmt.Sprintf("Created document %s", env.Data.ID)), nil
	}
}

func mcpResourceTemplates(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		env := deps.Vault.ListTemplates(ctx)
		if err := env.Err(); err != nil {
			return nil, fmt.Errorf("failed to list templates: %w", err)
		}
		return jsonResource(req.Params.URI, env.Data)
	}
}

func mcpResourceSettings(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		env := deps.Vault.GetSettings(ctx)
		if env.Code == facade.KindNotFound {
			return jsonResource(req.Params.URI, model.DefaultSettings())
		}
		if err := env.Err(); err != nil {
			return nil, fmt.Errorf("failed to get settings: %w", err)
		}
		return jsonResource(req.Params.URI, env.Data)
	}
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

// mcpEnvelope renders a successful envelope's data as JSON text and a failed
// one as a tool error.
func mcpEnvelope[T any](env facade.Envelope[T]) *mcp.CallToolResult {
	if !env.Success {
		return mcpError(env.Error)
	}
	return mcpJSON(env.Data)
}

func mcpJSON(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcpText(string(b))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
