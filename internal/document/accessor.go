// Package document provides read-only page access for the extraction engine.
// Accessors are idempotent and side-effect-free: agents sample and read pages
// through them but never modify the underlying document.
package document

import "context"

// Accessor exposes a document's pages to the engine. PageCount and Page must
// be idempotent; repeated calls with identical arguments return identical
// results for the lifetime of a processing run.
type Accessor interface {
	// PageCount returns the total number of pages in the document.
	PageCount(ctx context.Context, documentID string) (int, error)
	// Page returns the text/structure content of the given 1-indexed page.
	Page(ctx context.Context, documentID string, pageNumber int) (string, error)
}
