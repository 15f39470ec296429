package document

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFAccessor serves pages directly from PDF files on disk. The documentID is
// the path to the PDF. Page content is the page's raw content stream, which is
// sufficient for the model to read text operators; OCR and layout recovery are
// upstream concerns.
type PDFAccessor struct {
	conf *model.Configuration

	mu     sync.Mutex
	counts map[string]int // documentID -> cached page count
}

// NewPDFAccessor creates a PDF-backed accessor with relaxed validation, so
// slightly malformed documents still open.
func NewPDFAccessor() *PDFAccessor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.Cmd = model.EXTRACTCONTENT

	return &PDFAccessor{
		conf:   conf,
		counts: make(map[string]int),
	}
}

// PageCount returns the PDF's page count, cached per document.
func (a *PDFAccessor) PageCount(ctx context.Context, documentID string) (int, error) {
	a.mu.Lock()
	if count, ok := a.counts[documentID]; ok {
		a.mu.Unlock()
		return count, nil
	}
	a.mu.Unlock()

	count, err := api.PageCountFile(documentID)
	if err != nil {
		return 0, fmt.Errorf("page count for %s: %w", documentID, err)
	}

	a.mu.Lock()
	a.counts[documentID] = count
	a.mu.Unlock()

	return count, nil
}

// Page extracts the content of the given 1-indexed page.
func (a *PDFAccessor) Page(ctx context.Context, documentID string, pageNumber int) (string, error) {
	if pageNumber < 1 {
		return "", fmt.Errorf("page number %d out of range", pageNumber)
	}

	f, err := os.Open(documentID)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", documentID, err)
	}
	defer f.Close()

	pdfCtx, err := api.ReadValidateAndOptimize(f, a.conf)
	if err != nil {
		return "", fmt.Errorf("extract page %d: %w", pageNumber, err)
	}

	r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNumber)
	if err != nil {
		return "", fmt.Errorf("extract page %d: %w", pageNumber, err)
	}
	if r == nil {
		return "", nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read page %d content: %w", pageNumber, err)
	}
	return string(data), nil
}
