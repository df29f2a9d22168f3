package rules

import "context"

// Repository persists rule documents
type Repository interface {
	// Load reads the document stored at path. A missing document is
	// reported as ierr.ErrNotFound.
	Load(ctx context.Context, path string) (*Document, error)
	// Save writes doc to path, replacing any previous document
	Save(ctx context.Context, path string, doc *Document) error
}
