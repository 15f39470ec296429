package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirAccessor serves a document whose pages have already been split into one
// text file per page, named 00001.txt, 00002.txt, ... under
// <root>/<documentID>/. This matches the per-page object layout produced by
// upstream splitters.
type DirAccessor struct {
	root string
}

// NewDirAccessor creates an accessor rooted at the given directory.
func NewDirAccessor(root string) *DirAccessor {
	return &DirAccessor{root: root}
}

// PageCount counts the page files present for the document.
func (a *DirAccessor) PageCount(ctx context.Context, documentID string) (int, error) {
	entries, err := os.ReadDir(filepath.Join(a.root, documentID))
	if err != nil {
		return 0, fmt.Errorf("read document dir: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".txt") {
			count++
		}
	}
	return count, nil
}

// Page reads the content of the given 1-indexed page.
func (a *DirAccessor) Page(ctx context.Context, documentID string, pageNumber int) (string, error) {
	if pageNumber < 1 {
		return "", fmt.Errorf("page number %d out of range", pageNumber)
	}

	path := filepath.Join(a.root, documentID, fmt.Sprintf("%05d.txt", pageNumber))
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read page %d: %w", pageNumber, err)
	}
	return string(data), nil
}
