package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/content"
	"github.com/docvault/docvault/internal/facade"
	"github.com/docvault/docvault/internal/model"
	"github.com/docvault/docvault/internal/ocr"
	"github.com/docvault/docvault/internal/placeholder"
)

// --- shared flags ---

// documentDataFlags holds the descriptive document fields shared by
// docs create and docs update.
func documentDataFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("document", pflag.ContinueOnError)
	fs.String("case-number", "", "court case number")
	fs.String("contract-number", "", "contract number")
	fs.String("counterparty", "", "counterparty name")
	fs.Float64("amount", 0, "monetary amount")
	fs.String("expertise-type", "", "expertise type")
	fs.String("responsible", "", "responsible user")
	fs.StringSlice("tags", nil, "comma-separated tags")
	return fs
}

func documentData(fs *pflag.FlagSet) model.DocumentData {
	var d model.DocumentData
	d.CaseNumber, _ = fs.GetString("case-number")
	d.ContractNumber, _ = fs.GetString("contract-number")
	d.Counterparty, _ = fs.GetString("counterparty")
	if fs.Changed("amount") {
		amount, _ := fs.GetFloat64("amount")
		d.Amount = &amount
	}
	et, _ := fs.GetString("expertise-type")
	d.ExpertiseType = model.ExpertiseType(et)
	d.Responsible, _ = fs.GetString("responsible")
	d.Tags, _ = fs.GetStringSlice("tags")
	return d
}

// changedString returns a pointer to the flag's value when it was set on the
// command line.
func changedString(fs *pflag.FlagSet, name string) *string {
	if !fs.Changed(name) {
		return nil
	}
	v, _ := fs.GetString(name)
	return &v
}

// textInput reads a value from --<name> or, when --<name>-file is set, from a file.
func textInput(fs *pflag.FlagSet, name string) (string, bool, error) {
	if path, _ := fs.GetString(name + "-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", false, fmt.Errorf("reading %s: %w", path, err)
		}
		return string(data), true, nil
	}
	v, _ := fs.GetString(name)
	return v, fs.Changed(name), nil
}

// parseDateFlag accepts RFC 3339 or YYYY-MM-DD. With endOfDay, a date-only
// value covers the whole day.
func parseDateFlag(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// --- docs ---

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents, most recently updated first",
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := cmd.Flags()
		status, _ := fs.GetString("status")
		typ, _ := fs.GetString("type")
		search, _ := fs.GetString("search")
		filter := model.DocumentFilter{
			Status: model.Status(status),
			Type:   model.Type(typ),
			Search: search,
		}
		if from, _ := fs.GetString("from"); from != "" {
			t, err := parseDateFlag(from, false)
			if err != nil {
				return err
			}
			filter.From = t
		}
		if to, _ := fs.GetString("to"); to != "" {
			t, err := parseDateFlag(to, true)
			if err != nil {
				return err
			}
			filter.To = t
		}

		return withVault(func(v *facade.Facade) error {
			env := v.ListDocuments(cmd.Context(), filter)
			if err := env.Err(); err != nil {
				return err
			}
			if table, _ := fs.GetBool("table"); table {
				printDocumentTable(env.Data)
				return nil
			}
			return printValue(env.Data)
		})
	},
}

var docsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		markdown, _ := cmd.Flags().GetBool("markdown")
		return withVault(func(v *facade.Facade) error {
			env := v.GetDocument(cmd.Context(), args[0])
			if err := env.Err(); err != nil {
				return err
			}
			if !markdown {
				return printValue(env.Data)
			}
			md, err := content.NewRenderer().ToMarkdown(env.Data.CurrentContent)
			if err != nil {
				return fmt.Errorf("rendering content: %w", err)
			}
			fmt.Println(md)
			return nil
		})
	},
}

var docsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a draft document",
	Example: `  docvault docs create --title "Supply contract" --type contract --counterparty Acme
  docvault docs create --title "Claim" --type claim --tags urgent,court --content-file claim.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := cmd.Flags()
		title, _ := fs.GetString("title")
		typ, _ := fs.GetString("type")
		data := documentData(fs)
		text, hasContent, err := textInput(fs, "content")
		if err != nil {
			return err
		}

		return withVault(func(v *facade.Facade) error {
			env := v.CreateDocument(cmd.Context(), title, model.Type(typ), data)
			if err := env.Err(); err != nil {
				return err
			}
			doc := env.Data
			printSuccess("Created document %s", doc.ID)
			if !hasContent {
				return printValue(doc)
			}

			if err := v.CreateVersion(cmd.Context(), doc.ID, text, "Initial version", "").Err(); err != nil {
				return fmt.Errorf("document %s created without content: %w", doc.ID, err)
			}
			return emit(v.GetDocument(cmd.Context(), doc.ID))
		})
	},
}

var docsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update document fields; only flags given are changed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := cmd.Flags()
		patch := model.DocumentPatch{
			Title:          changedString(fs, "title"),
			CaseNumber:     changedString(fs, "case-number"),
			ContractNumber: changedString(fs, "contract-number"),
			Counterparty:   changedString(fs, "counterparty"),
			Responsible:    changedString(fs, "responsible"),
		}
		if s := changedString(fs, "type"); s != nil {
			t := model.Type(*s)
			patch.Type = &t
		}
		if s := changedString(fs, "status"); s != nil {
			st := model.Status(*s)
			patch.Status = &st
		}
		if s := changedString(fs, "expertise-type"); s != nil {
			et := model.ExpertiseType(*s)
			patch.ExpertiseType = &et
		}
		if fs.Changed("amount") {
			amount, _ := fs.GetFloat64("amount")
			patch.Amount = &amount
		}
		if fs.Changed("tags") {
			tags, _ := fs.GetStringSlice("tags")
			patch.Tags = append([]string{}, tags...)
		}
		text, ok, err := textInput(fs, "content")
		if err != nil {
			return err
		}
		if ok {
			patch.CurrentContent = &text
		}

		return withVault(func(v *facade.Facade) error {
			env := v.UpdateDocument(cmd.Context(), args[0], patch)
			if err := env.Err(); err != nil {
				return err
			}
			printSuccess("Updated document %s", env.Data.ID)
			return nil
		})
	},
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(func(v *facade.Facade) error {
			if err := v.DeleteDocument(cmd.Context(), args[0]).Err(); err != nil {
				return err
			}
			printSuccess("Deleted document %s", args[0])
			return nil
		})
	},
}

func init() {
	docsListCmd.Flags().String("status", "", "filter by status")
	docsListCmd.Flags().String("type", "", "filter by type")
	docsListCmd.Flags().String("search", "", "case-insensitive text search")
	docsListCmd.Flags().String("from", "", "created on or after (YYYY-MM-DD or RFC 3339)")
	docsListCmd.Flags().String("to", "", "created on or before (YYYY-MM-DD or RFC 3339)")
	docsListCmd.Flags().Bool("table", false, "print one line per document")

	docsShowCmd.Flags().Bool("markdown", false, "print current content as Markdown")

	docsCreateCmd.Flags().String("title", "", "document title (required)")
	docsCreateCmd.Flags().String("type", "", "document type (required)")
	docsCreateCmd.Flags().String("content", "", "initial content, stored as version 1")
	docsCreateCmd.Flags().String("content-file", "", "read initial content from a file")
	docsCreateCmd.Flags().AddFlagSet(documentDataFlags())

	docsUpdateCmd.Flags().String("title", "", "new title")
	docsUpdateCmd.Flags().String("type", "", "new type")
	docsUpdateCmd.Flags().String("status", "", "new status")
	docsUpdateCmd.Flags().String("content", "", "new current content")
	docsUpdateCmd.Flags().String("content-file", "", "read new current content from a file")
	docsUpdateCmd.Flags().AddFlagSet(documentDataFlags())

	docsCmd.AddCommand(docsListCmd, docsShowCmd, docsCreateCmd, docsUpdateCmd, docsDeleteCmd)
}

func printDocumentTable(docs []model.Document) {
	if len(docs) == 0 {
		fmt.Println("No documents found.")
		return
	}
	for _, d := range docs {
		fmt.Printf("%s  %-10s %-10s %s\n",
			colorize(colorCyan, d.ID),
			d.Type,
			d.Status,
			d.Title,
		)
	}
}

// --- versions ---

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Manage document versions",
}

var versionsListCmd = &cobra.Command{
	Use:   "list <document-id>",
	Short: "List versions, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(func(v *facade.Facade) error {
			return emit(v.GetVersions(cmd.Context(), args[0]))
		})
	},
}

var versionsAddCmd = &cobra.Command{
	Use:   "add <document-id>",
	Short: "Append a version and make it the current content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := cmd.Flags()
		text, _, err := textInput(fs, "content")
		if err != nil {
			return err
		}
		note, _ := fs.GetString("note")
		author, _ := fs.GetString("author")

		return withVault(func(v *facade.Facade) error {
			env := v.CreateVersion(cmd.Context(), args[0], text, note, author)
			if err := env.Err(); err != nil {
				return err
			}
			printSuccess("Created version %d (%s)", env.Data.VersionNumber, env.Data.ID)
			return nil
		})
	},
}

var versionsRevertCmd = &cobra.Command{
	Use:   "revert <document-id> <version-id>",
	Short: "Restore a version by appending a copy of it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(func(v *facade.Facade) error {
			env := v.RevertVersion(cmd.Context(), args[0], args[1])
			if err := env.Err(); err != nil {
				return err
			}
			latest := env.Data.Versions[len(env.Data.Versions)-1]
			printSuccess("%s as version %d", latest.Note, latest.VersionNumber)
			return nil
		})
	},
}

func init() {
	versionsAddCmd.Flags().String("content", "", "version content")
	versionsAddCmd.Flags().String("content-file", "", "read version content from a file")
	versionsAddCmd.Flags().String("note", "", "what changed")
	versionsAddCmd.Flags().String("author", "", "who made the change")
	versionsCmd.AddCommand(versionsListCmd, versionsAddCmd, versionsRevertCmd)
}

// --- comments ---

var commentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "Manage document comments",
}

var commentsListCmd = &cobra.Command{
	Use:   "list <document-id>",
	Short: "List comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(func(v *facade.Facade) error {
			return emit(v.GetComments(cmd.Context(), args[0]))
		})
	},
}

var commentsAddCmd = &cobra.Command{
	Use:   "add <document-id> <text>",
	Short: "Add a comment",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		author, _ := cmd.Flags().GetString("author")
		versionID, _ := cmd.Flags().GetString("version")
		text := strings.Join(args[1:], " ")

		return withVault(func(v *facade.Facade) error {
			env := v.AddComment(cmd.Context(), args[0], text, author, versionID)
			if err := env.Err(); err != nil {
				return err
			}
			printSuccess("Added comment %s", env.Data.ID)
			return nil
		})
	},
}

func init() {
	commentsAddCmd.Flags().String("author", "", "comment author")
	commentsAddCmd.Flags().String("version", "", "version id the comment refers to")
	commentsCmd.AddCommand(commentsListCmd, commentsAddCmd)
}

// --- templates ---

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage document templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(func(v *facade.Facade) error {
			return emit(v.ListTemplates(cmd.Context()))
		})
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(func(v *facade.Facade) error {
			return emit(v.GetTemplate(cmd.Context(), args[0]))
		})
	},
}

var templatesCreateCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create a template; {{name}} marks a field",
	Example: `  docvault templates create --name NDA --content-file nda.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := cmd.Flags()
		name, _ := fs.GetString("name")
		description, _ := fs.GetString("description")
		text, _, err := textInput(fs, "content")
		if err != nil {
			return err
		}

		return withVault(func(v *facade.Facade) error {
			env := v.CreateTemplate(cmd.Context(), name, description, text)
			if err := env.Err(); err != nil {
				return err
			}
			printSuccess("Created template %s with fields %v", env.Data.ID, env.Data.Fields)
			return nil
		})
	},
}

var templatesUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a template; only flags given are changed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := cmd.Flags()
		patch := model.TemplatePatch{
			Name:        changedString(fs, "name"),
			Description: changedString(fs, "description"),
		}
		text, ok, err := textInput(fs, "content")
		if err != nil {
			return err
		}
		if ok {
			patch.Content = &text
		}

		return withVault(func(v *facade.Facade) error {
			env := v.UpdateTemplate(cmd.Context(), args[0], patch)
			if err := env.Err(); err != nil {
				return err
			}
			printSuccess("Updated template %s", env.Data.ID)
			return nil
		})
	},
}

var templatesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(func(v *facade.Facade) error {
			if err := v.DeleteTemplate(cmd.Context(), args[0]).Err(); err != nil {
				return err
			}
			printSuccess("Deleted template %s", args[0])
			return nil
		})
	},
}

var templatesGenerateCmd = &cobra.Command{
	Use:     "generate <template-id>",
	Short:   "Create an active document from a template",
	Args:    cobra.ExactArgs(1),
	Example: `  docvault templates generate tpl-1 --title "NDA Acme" --type agreement --field party=Acme --field date=2026-01-01`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := cmd.Flags()
		values, _ := fs.GetStringToString("field")
		title, _ := fs.GetString("title")
		typ, _ := fs.GetString("type")
		meta := model.GenerateMeta{
			Title: title,
			Type:  model.Type(typ),
		}
		meta.CaseNumber, _ = fs.GetString("case-number")
		meta.ContractNumber, _ = fs.GetString("contract-number")
		meta.Counterparty, _ = fs.GetString("counterparty")

		return withVault(func(v *facade.Facade) error {
			tpl := v.GetTemplate(cmd.Context(), args[0])
			if err := tpl.Err(); err != nil {
				return err
			}
			env := v.GenerateFromTemplate(cmd.Context(), args[0], values, meta)
			if err := env.Err(); err != nil {
				return err
			}
			printSuccess("Created document %s", env.Data.ID)
			if missing := placeholder.MissingFields(tpl.Data.Content, values); len(missing) > 0 {
				printWarning("Left unfilled: %s", strings.Join(missing, ", "))
			}
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{templatesCreateCmd, templatesUpdateCmd} {
		c.Flags().String("name", "", "template name")
		c.Flags().String("description", "", "template description")
		c.Flags().String("content", "", "template content")
		c.Flags().String("content-file", "", "read template content from a file")
	}

	gf := templatesGenerateCmd.Flags()
	gf.StringToString("field", nil, "field value as name=value (repeatable)")
	gf.String("title", "", "document title (required)")
	gf.String("type", "", "document type (required)")
	gf.String("case-number", "", "court case number")
	gf.String("contract-number", "", "contract number")
	gf.String("counterparty", "", "counterparty name")

	templatesCmd.AddCommand(templatesListCmd, templatesShowCmd, templatesCreateCmd,
		templatesUpdateCmd, templatesDeleteCmd, templatesGenerateCmd)
}

// --- settings ---

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or update application settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(func(v *facade.Facade) error {
			return emit(v.GetSettings(cmd.Context()))
		})
	},
}

var settingsUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Merge changes into settings",
	Long: `Merge changes into settings. Lists given via --file replace the stored
lists wholesale; lists not mentioned are kept.`,
	Example: `  docvault settings update --enable-ocr=false
  docvault settings update --file settings.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := cmd.Flags()
		var patch model.SettingsPatch
		if path, _ := fs.GetString("file"); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			if err := json.Unmarshal(data, &patch); err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}
		}
		if fs.Changed("enable-ocr") {
			b, _ := fs.GetBool("enable-ocr")
			patch.EnableOCR = &b
		}
		if fs.Changed("use-tesseract") {
			b, _ := fs.GetBool("use-tesseract")
			patch.UseTesseract = &b
		}
		if fs.Changed("expertise-types") {
			names, _ := fs.GetStringSlice("expertise-types")
			patch.ExpertiseTypes = make([]model.ExpertiseType, len(names))
			for i, n := range names {
				patch.ExpertiseTypes[i] = model.ExpertiseType(n)
			}
		}

		return withVault(func(v *facade.Facade) error {
			if err := v.UpdateSettings(cmd.Context(), patch).Err(); err != nil {
				return err
			}
			printSuccess("Settings updated")
			return nil
		})
	},
}

func init() {
	uf := settingsUpdateCmd.Flags()
	uf.String("file", "", "JSON file with counterparties, expertiseTypes, users, enableOCR, useTesseract")
	uf.Bool("enable-ocr", true, "queue text recognition for uploaded files")
	uf.Bool("use-tesseract", false, "prefer the Tesseract engine when available")
	uf.StringSlice("expertise-types", nil, "comma-separated expertise types")
	settingsCmd.AddCommand(settingsShowCmd, settingsUpdateCmd)
}

// --- export / import ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export documents, templates and settings",
	Long: `Export documents, templates and settings. With --file the export is written
atomically as JSON that import accepts; otherwise it is printed in the
selected output format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		return withVault(func(v *facade.Facade) error {
			env := v.ExportDatabase(cmd.Context())
			if err := env.Err(); err != nil {
				return err
			}
			if path == "" {
				return printValue(env.Data)
			}

			var buf bytes.Buffer
			if err := writeValue(&buf, "json", env.Data); err != nil {
				return err
			}
			if err := atomic.WriteFile(path, &buf); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			printSuccess("Exported %d documents and %d templates to %s",
				len(env.Data.Documents), len(env.Data.Templates), path)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all documents and templates with an export file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("Import replaces ALL documents and templates. Use --confirm to proceed.")
			return nil
		}

		blob, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		return withVault(func(v *facade.Facade) error {
			printStep("Importing %s", args[0])
			if err := v.ImportDatabase(cmd.Context(), blob).Err(); err != nil {
				return err
			}
			printSuccess("Imported %s", args[0])
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().String("file", "", "write the export to this path")
	importCmd.Flags().Bool("confirm", false, "confirm replacing existing data")
}

// --- files ---

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage uploaded files",
}

var filesUploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Upload a file, optionally attaching it to a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docID, _ := cmd.Flags().GetString("document")
		mimeType, _ := cmd.Flags().GetString("type")

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		if mimeType == "" {
			mimeType = detectType(args[0], data)
		}

		return withVault(func(v *facade.Facade) error {
			env := v.UploadFile(cmd.Context(), filepath.Base(args[0]), mimeType, data, docID)
			if err := env.Err(); err != nil {
				return err
			}
			printSuccess("Uploaded %s as %s (%s, %d bytes)", args[0], env.Data.ID, env.Data.Type, env.Data.Size)
			return nil
		})
	},
}

var filesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show file metadata, or save its contents with --save",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		savePath, _ := cmd.Flags().GetString("save")
		return withVault(func(v *facade.Facade) error {
			env := v.GetFile(cmd.Context(), args[0])
			if err := env.Err(); err != nil {
				return err
			}
			file := env.Data
			if savePath != "" {
				if err := atomic.WriteFile(savePath, bytes.NewReader(file.Data)); err != nil {
					return fmt.Errorf("writing %s: %w", savePath, err)
				}
				printSuccess("Saved %s to %s", file.Name, savePath)
				return nil
			}
			file.Data = nil
			return printValue(file)
		})
	},
}

var filesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(func(v *facade.Facade) error {
			if err := v.DeleteFile(cmd.Context(), args[0]).Err(); err != nil {
				return err
			}
			printSuccess("Deleted file %s", args[0])
			return nil
		})
	},
}

var filesRecognizeCmd = &cobra.Command{
	Use:   "recognize <id>",
	Short: "Print the recognized text of a stored file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(func(v *facade.Facade) error {
			env := v.RecognizeText(cmd.Context(), args[0])
			if err := env.Err(); err != nil {
				return err
			}
			fmt.Println(env.Data)
			return nil
		})
	},
}

func init() {
	filesUploadCmd.Flags().String("document", "", "attach to this document id")
	filesUploadCmd.Flags().String("type", "", "MIME type (detected when omitted)")
	filesShowCmd.Flags().String("save", "", "write the file contents to this path")
	filesCmd.AddCommand(filesUploadCmd, filesShowCmd, filesDeleteCmd, filesRecognizeCmd)
}

// detectType guesses a MIME type from the file extension, then from content.
func detectType(path string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return t
	}
	return http.DetectContentType(data)
}

// --- ocr ---

var ocrCmd = &cobra.Command{
	Use:   "ocr <path>...",
	Short: "Extract text from local files without storing them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := make([]model.FileUpload, len(args))
		for i, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			files[i] = model.FileUpload{
				Name: filepath.Base(path),
				Type: detectType(path, data),
				Data: data,
				Size: int64(len(data)),
			}
		}

		printStep("Recognizing %d file(s)", len(files))
		texts, err := ocr.NewRecognizer(nil).RecognizeBatch(cmd.Context(), files)
		if err != nil {
			return err
		}
		for i, text := range texts {
			if len(texts) > 1 {
				fmt.Println(colorize(colorBold, "== "+args[i]))
			}
			fmt.Println(text)
		}
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s  %s\n", colorize(colorBold, k.Key), k.Value, colorize(colorCyan, "$"+k.EnvVar))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.ValidKeys(), ", "))
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
}
