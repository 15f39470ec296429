package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/fieldline/fieldline/internal/api"
	"github.com/fieldline/fieldline/internal/config"
	"github.com/fieldline/fieldline/internal/document"
	"github.com/fieldline/fieldline/internal/engine"
)

// newClient builds an API client for the given model from the loaded config.
func newClient(cfg *config.Config, model string) (*api.Client, error) {
	key, err := config.ResolveAPIKey(cfg)
	if err != nil {
		return nil, err
	}
	return api.NewClient(api.ClientConfig{
		Model:         anthropic.Model(model),
		APIKey:        key,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
}

// newEngine wires the full pipeline from config. The returned clients expose
// token trackers for end-of-run reporting; sink may be nil.
func newEngine(cfg *config.Config, accessor document.Accessor, sink engine.Sink) (*engine.Engine, *api.Client, *api.Client, error) {
	discoveryClient, err := newClient(cfg, cfg.Model.Discovery)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create discovery client: %w", err)
	}

	extractionClient := discoveryClient
	if cfg.Model.Extraction != cfg.Model.Discovery {
		extractionClient, err = newClient(cfg, cfg.Model.Extraction)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create extraction client: %w", err)
		}
	}

	e := engine.New(discoveryClient, extractionClient, accessor, sink, engine.Config{
		DiscoveryTimeout:       cfg.Timeouts.Discovery,
		ExtractionTimeout:      cfg.Timeouts.Extraction,
		DocumentDeadline:       cfg.Timeouts.Document,
		LowConfidenceThreshold: cfg.Thresholds.LowConfidence,
		MinFields:              cfg.Thresholds.MinFields,
		MinAgentFraction:       cfg.Thresholds.MinAgentFraction,
	})
	return e, discoveryClient, extractionClient, nil
}

// accessorFor picks a document accessor for the given path. A .pdf file is
// served page by page from the PDF; a directory is expected to hold one text
// file per page.
func accessorFor(path string) (document.Accessor, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, "", fmt.Errorf("resolve %s: %w", path, err)
		}
		return document.NewDirAccessor(filepath.Dir(abs)), filepath.Base(abs), nil
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return document.NewPDFAccessor(), path, nil
	}

	return nil, "", fmt.Errorf("unsupported document %s: want a .pdf file or a page directory", path)
}
