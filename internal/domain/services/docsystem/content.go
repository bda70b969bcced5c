package docsystem

import (
	"context"

	"nodestore/internal/domain/models/docsystem"
)

// ResolvedContent holds at most one of inline content or a signed URL.
// Both nil means the content could not be located.
type ResolvedContent struct {
	Content   *string `json:"content"`
	SignedURL *string `json:"signedUrl"`
}

// ContentResolver finds the effective content of a file node
type ContentResolver interface {
	// Resolve returns inline text, or a signed URL to the first candidate key that exists.
	// It never fails: an unresolvable object yields an empty ResolvedContent.
	Resolve(ctx context.Context, node *docsystem.Node, text string) *ResolvedContent
}
