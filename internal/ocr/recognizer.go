// Package ocr extracts searchable text from uploaded files.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/docvault/docvault/internal/model"
)

// ErrEmptyFile is returned when a file has no data to recognize.
var ErrEmptyFile = errors.New("file is empty")

// StubText is returned for formats without a text layer (images, scans).
// Image recognition is not performed.
func StubText(name string) string {
	return fmt.Sprintf("Recognized text from document %q.\n\n"+
		"This is a simulated recognition result.\n"+
		"Scanned images are not processed; only PDF text layers, HTML and plain text are extracted.", name)
}

// Recognizer turns a stored file into plain text.
type Recognizer struct {
	logger *slog.Logger
}

func NewRecognizer(logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{logger: logger}
}

// Recognize returns the text content of f, chosen by its MIME type.
func (r *Recognizer) Recognize(ctx context.Context, f model.FileUpload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(f.Data) == 0 {
		return "", ErrEmptyFile
	}

	mediaType, _, err := mime.ParseMediaType(f.Type)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(f.Type))
	}

	switch {
	case mediaType == "application/pdf":
		text, err := pdfText(f.Data)
		if err != nil {
			return "", fmt.Errorf("reading pdf %s: %w", f.Name, err)
		}
		if strings.TrimSpace(text) == "" {
			r.logger.Debug("pdf has no text layer, using stub", "file", f.ID)
			return StubText(f.Name), nil
		}
		return text, nil
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return htmlText(f.Data)
	case strings.HasPrefix(mediaType, "text/"):
		return string(f.Data), nil
	default:
		return StubText(f.Name), nil
	}
}

// RecognizeBatch recognizes files concurrently. Results are index-aligned with files.
func (r *Recognizer) RecognizeBatch(ctx context.Context, files []model.FileUpload) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	results := make([]string, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, f := range files {
		g.Go(func() error {
			text, err := r.Recognize(gCtx, f)
			if err != nil {
				return fmt.Errorf("recognizing file %s: %w", f.ID, err)
			}
			results[i] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func pdfText(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	rd, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := rd.GetPlainText()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "blockquote": true, "pre": true,
}

func htmlText(data []byte) (string, error) {
	z := html.NewTokenizer(bytes.NewReader(data))
	var sb strings.Builder
	skip := 0

	newline := func() {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", fmt.Errorf("tokenizing html: %w", err)
			}
			return strings.TrimSpace(sb.String()), nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				skip++
			}
			if blockTags[tag] {
				newline()
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
			if blockTags[tag] {
				newline()
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := strings.Join(strings.Fields(string(z.Text())), " ")
			if text == "" {
				continue
			}
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteByte(' ')
			}
			sb.WriteString(text)
		}
	}
}
