package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sigma-teacher/tutor/internal/ai"
)

// UploadDocuments uploads docs and waits until each is ready. Documents that
// fail to upload or process are logged and left out. Only cancellation of
// ctx is returned as an error.
func (o *Oracle) UploadDocuments(ctx context.Context, docs []ai.Document) ([]ai.FileHandle, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if o.files == nil {
		slog.Warn("no file store configured, ignoring documents", "count", len(docs))
		return nil, nil
	}

	var handles []ai.FileHandle
	for _, doc := range docs {
		h, err := o.files.Upload(ctx, doc)
		if err != nil {
			if ctx.Err() != nil {
				return handles, ctx.Err()
			}
			slog.Warn("document upload failed, skipping", "document", doc.Name, "error", err)
			continue
		}
		if err := o.waitReady(ctx, h); err != nil {
			if ctx.Err() != nil {
				return handles, ctx.Err()
			}
			slog.Warn("document not usable, skipping", "document", doc.Name, "error", err)
			continue
		}
		slog.Info("document ready", "document", doc.Name, "file", h.Name)
		handles = append(handles, h)
	}
	return handles, nil
}

func (o *Oracle) waitReady(ctx context.Context, h ai.FileHandle) error {
	pollCtx, cancel := context.WithTimeout(ctx, o.pollTimeout)
	defer cancel()

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		state, err := o.files.State(pollCtx, h.Name)
		if err != nil {
			return fmt.Errorf("poll %s: %w", h.Name, err)
		}
		switch state {
		case ai.FileStateActive:
			return nil
		case ai.FileStateFailed:
			return fmt.Errorf("processing of %s failed", h.Name)
		}

		select {
		case <-pollCtx.Done():
			return fmt.Errorf("wait for %s: %w", h.Name, pollCtx.Err())
		case <-ticker.C:
		}
	}
}
