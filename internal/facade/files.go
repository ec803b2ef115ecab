package facade

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/docvault/docvault/internal/model"
	"github.com/docvault/docvault/internal/storage"
)

// RecognizeJobType is the job type enqueued for uploads attached to a document.
const RecognizeJobType = "ocr_recognize"

// RecognizePayload is the payload of a RecognizeJobType job.
type RecognizePayload struct {
	FileID string `json:"file_id"`
}

// UploadFile stores a file. When documentID is set the document must exist,
// and if text recognition is enabled in settings a background recognition
// job is queued for the file.
func (f *Facade) UploadFile(ctx context.Context, name, mimeType string, data []byte, documentID string) Envelope[model.FileUpload] {
	return run(f, "upload_file", "Failed to upload file", func() (model.FileUpload, error) {
		if err := (newFileRequest{Name: name, Data: data}).Validate(); err != nil {
			return model.FileUpload{}, invalid("file", err)
		}
		if documentID != "" {
			if _, err := f.loadDocument(ctx, documentID); err != nil {
				return model.FileUpload{}, err
			}
		}
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		file := model.FileUpload{
			ID:         f.newID(),
			Name:       name,
			Size:       int64(len(data)),
			Type:       mimeType,
			Data:       data,
			DocumentID: documentID,
			UploadedAt: f.now(),
		}
		if err := f.store.Put(ctx, storage.Files, file.ID, file); err != nil {
			return model.FileUpload{}, err
		}

		if documentID != "" {
			f.queueRecognition(ctx, file.ID)
		}
		return file, nil
	})
}

func (f *Facade) GetFile(ctx context.Context, id string) Envelope[model.FileUpload] {
	return run(f, "get_file", "Failed to fetch file", func() (model.FileUpload, error) {
		return f.loadFile(ctx, id)
	})
}

// DeleteFile removes the file. Deleting a missing file succeeds.
func (f *Facade) DeleteFile(ctx context.Context, id string) Envelope[Empty] {
	return run(f, "delete_file", "Failed to delete file", func() (Empty, error) {
		return Empty{}, f.store.Delete(ctx, storage.Files, id)
	})
}

// RecognizeText extracts the text of a stored file.
func (f *Facade) RecognizeText(ctx context.Context, fileID string) Envelope[string] {
	return run(f, "recognize_text", "Failed to recognize text", func() (string, error) {
		file, err := f.loadFile(ctx, fileID)
		if err != nil {
			return "", err
		}
		return f.recognizer.Recognize(ctx, file)
	})
}

// queueRecognition enqueues a recognition job when a queue is configured and
// settings allow it. Failures are logged; the upload itself has succeeded.
func (f *Facade) queueRecognition(ctx context.Context, fileID string) {
	if f.jobs == nil {
		return
	}
	s, _, err := f.loadSettings(ctx)
	if err != nil {
		f.logger.Warn("reading settings for recognition", "file", fileID, "error", err)
		return
	}
	if !s.EnableOCR {
		return
	}

	payload, err := json.Marshal(RecognizePayload{FileID: fileID})
	if err != nil {
		f.logger.Warn("encoding recognition payload", "file", fileID, "error", err)
		return
	}
	job := storage.Job{ID: f.newID(), Type: RecognizeJobType, PayloadJSON: string(payload)}
	if err := f.jobs.EnqueueJob(ctx, job); err != nil {
		f.logger.Warn("enqueueing recognition job", "file", fileID, "error", err)
		return
	}
	f.logger.Debug("recognition job queued", "file", fileID, "job", job.ID)
}

func (f *Facade) loadFile(ctx context.Context, id string) (model.FileUpload, error) {
	var file model.FileUpload
	err := f.store.Get(ctx, storage.Files, id, &file)
	if errors.Is(err, storage.ErrNotFound) {
		return model.FileUpload{}, notFound("File")
	}
	if err != nil {
		return model.FileUpload{}, err
	}
	return file, nil
}
