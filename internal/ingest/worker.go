// Package ingest runs background text recognition for uploaded files.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/docvault/docvault/internal/facade"
	"github.com/docvault/docvault/internal/model"
	"github.com/docvault/docvault/internal/storage"
)

// JobStore is the part of the store's job queue the worker drives.
type JobStore interface {
	ClaimNextJob(ctx context.Context, types []string) (*storage.Job, error)
	CompleteJob(ctx context.Context, id string) error
	FailJob(ctx context.Context, id string, errMsg string) error
}

// Vault is the subset of the facade the worker drives.
type Vault interface {
	GetFile(ctx context.Context, id string) facade.Envelope[model.FileUpload]
	RecognizeText(ctx context.Context, fileID string) facade.Envelope[string]
	UpdateDocument(ctx context.Context, id string, patch model.DocumentPatch) facade.Envelope[model.Document]
}

// Worker processes ocr_recognize jobs from the SQLite job queue and caches
// the recognized text on the owning document.
type Worker struct {
	store  JobStore
	vault  Vault
	poll   time.Duration
	logger *slog.Logger
}

// NewWorker returns a worker that recognizes uploads queued in store.
// A non-positive pollInterval means 500ms.
func NewWorker(store JobStore, vault Vault, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Worker{
		store:  store,
		vault:  vault,
		poll:   pollInterval,
		logger: slog.Default(),
	}
}

// Run claims and processes recognition jobs until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single recognition job.
// It reports whether a job was claimed, whether or not recognition succeeded.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob(ctx, []string{facade.RecognizeJobType})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Warn("job failed", "job_id", job.ID, "error", err)
		if failErr := w.store.FailJob(ctx, job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(ctx, job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

func (w *Worker) processJob(ctx context.Context, job *storage.Job) error {
	var payload facade.RecognizePayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}

	fileEnv := w.vault.GetFile(ctx, payload.FileID)
	if errors.Is(fileEnv.Err(), facade.ErrNotFound) {
		w.logger.Info("file removed before recognition", "file_id", payload.FileID)
		return nil
	}
	if err := fileEnv.Err(); err != nil {
		return fmt.Errorf("loading file %s: %w", payload.FileID, err)
	}
	file := fileEnv.Data
	if file.DocumentID == "" {
		return nil
	}

	textEnv := w.vault.RecognizeText(ctx, file.ID)
	if err := textEnv.Err(); err != nil {
		return fmt.Errorf("recognizing file %s: %w", file.ID, err)
	}

	text := textEnv.Data
	docEnv := w.vault.UpdateDocument(ctx, file.DocumentID, model.DocumentPatch{OCRText: &text})
	if errors.Is(docEnv.Err(), facade.ErrNotFound) {
		w.logger.Info("document removed before recognition finished", "document_id", file.DocumentID)
		return nil
	}
	if err := docEnv.Err(); err != nil {
		return fmt.Errorf("updating document %s: %w", file.DocumentID, err)
	}

	w.logger.Debug("recognized file", "file_id", file.ID, "document_id", file.DocumentID, "chars", len(text))
	return nil
}
