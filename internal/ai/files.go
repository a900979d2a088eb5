package ai

import "context"

// Document is raw teaching material to be uploaded before domain generation.
type Document struct {
	Name     string
	MIMEType string
	Data     []byte
}

// FileState is the processing state of an uploaded document.
type FileState string

const (
	FileStateProcessing FileState = "processing"
	FileStateActive     FileState = "active"
	FileStateFailed     FileState = "failed"
)

// FileStore uploads documents so completions can reference them.
type FileStore interface {
	Upload(ctx context.Context, doc Document) (FileHandle, error)
	State(ctx context.Context, name string) (FileState, error)
}
