package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fieldline/fieldline/internal/config"
	"github.com/fieldline/fieldline/internal/document"
	"github.com/fieldline/fieldline/pkg/models"
)

func TestAccessorForPageDirectory(t *testing.T) {
	root := t.TempDir()
	docDir := filepath.Join(root, "invoice-42")
	if err := os.MkdirAll(docDir, 0755); err != nil {
		t.Fatal(err)
	}

	accessor, documentID, err := accessorFor(docDir)
	if err != nil {
		t.Fatalf("accessorFor: %v", err)
	}
	if documentID != "invoice-42" {
		t.Errorf("documentID = %q, want invoice-42", documentID)
	}
	if _, ok := accessor.(*document.DirAccessor); !ok {
		t.Errorf("accessor = %T, want *document.DirAccessor", accessor)
	}
}

func TestAccessorForPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.PDF")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatal(err)
	}

	accessor, documentID, err := accessorFor(path)
	if err != nil {
		t.Fatalf("accessorFor: %v", err)
	}
	if documentID != path {
		t.Errorf("documentID = %q, want the file path", documentID)
	}
	if _, ok := accessor.(*document.PDFAccessor); !ok {
		t.Errorf("accessor = %T, want *document.PDFAccessor", accessor)
	}
}

func TestAccessorForUnsupportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := accessorFor(path); err == nil {
		t.Error("expected error for unsupported file type")
	}
}

func TestSetConfigValue(t *testing.T) {
	cfg := config.Default()

	if err := setConfigValue(cfg, "timeouts.document", "30m"); err != nil {
		t.Fatalf("set timeouts.document: %v", err)
	}
	if cfg.Timeouts.Document != 30*time.Minute {
		t.Errorf("document timeout = %v, want 30m", cfg.Timeouts.Document)
	}

	if err := setConfigValue(cfg, "thresholds.low_confidence", "0.7"); err != nil {
		t.Fatalf("set thresholds.low_confidence: %v", err)
	}
	if cfg.Thresholds.LowConfidence != 0.7 {
		t.Errorf("low confidence = %v, want 0.7", cfg.Thresholds.LowConfidence)
	}

	if err := setConfigValue(cfg, "output.format", "xml"); err == nil {
		t.Error("expected error for invalid output format")
	}
	if err := setConfigValue(cfg, "nope.nope", "1"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestRecordLabel(t *testing.T) {
	unsaved := &models.ConsolidatedRecord{}
	if got := recordLabel(unsaved); got != "record (unsaved)" {
		t.Errorf("recordLabel(unsaved) = %q, want record (unsaved)", got)
	}

	saved := &models.ConsolidatedRecord{Version: 3}
	if got := recordLabel(saved); got != "record v3" {
		t.Errorf("recordLabel(saved) = %q, want record v3", got)
	}
}

func TestGetConfigValueMasksAPIKey(t *testing.T) {
	cfg := config.Default()
	cfg.Anthropic.APIKey = "sk-ant-abcdefghijklmnop"

	got, err := getConfigValue(cfg, "anthropic.api_key")
	if err != nil {
		t.Fatalf("getConfigValue: %v", err)
	}
	if got == cfg.Anthropic.APIKey {
		t.Error("API key displayed unmasked")
	}
}
