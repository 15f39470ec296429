package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/fieldline/fieldline/internal/config"
	"github.com/fieldline/fieldline/internal/document"
	"github.com/fieldline/fieldline/internal/state"
)

// settleDelay gives the writer time to finish before we open a new file.
const settleDelay = 2 * time.Second

// watchQueueSize bounds the backlog of PDFs waiting for the worker. A full
// queue drops the newest arrival with a log line rather than stalling event
// consumption.
const watchQueueSize = 256

var watchCmd = &cobra.Command{
	Use:   "watch <inbox-dir>",
	Short: "Process PDFs as they arrive in a directory",
	Long: `Watch an inbox directory and process every PDF dropped into it. Each
document runs through the full pipeline and its record is persisted. A failed
document is logged and skipped; the watcher keeps running until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inbox := args[0]
		info, err := os.Stat(inbox)
		if err != nil {
			return fmt.Errorf("stat %s: %w", inbox, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", inbox)
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sink, err := state.Open(cfg.Storage.DBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer sink.Close()
		if err := sink.Migrate(); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}

		e, _, _, err := newEngine(cfg, document.NewPDFAccessor(), sink)
		if err != nil {
			return err
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		if err := watcher.Add(inbox); err != nil {
			return fmt.Errorf("watch %s: %w", inbox, err)
		}

		fmt.Printf("%s watching %s for PDFs (ctrl-c to stop)\n", color.CyanString("▸"), inbox)

		ctx := cmd.Context()
		watchLoop(ctx, watcher.Events, watcher.Errors, func(path string) {
			time.Sleep(settleDelay)
			log.Printf("[watch] processing %s", path)
			record, err := e.Process(ctx, path)
			if err != nil {
				log.Printf("[watch] %s failed: %v", path, err)
				return
			}
			log.Printf("[watch] %s done: record v%d, %d fields, flags=%v",
				path, record.Version, len(record.Fields), record.Flags)
		})
		return nil
	},
}

// watchLoop consumes watcher events and hands PDF paths to process on a
// separate worker goroutine. A document run can take many minutes, so it must
// never run inside the event loop: a stalled loop lets fsnotify's buffer
// overflow and silently drop Create events for PDFs arriving meanwhile.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, process func(path string)) {
	queue := make(chan string, watchQueueSize)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case path, ok := <-queue:
				if !ok {
					return
				}
				process(path)
			}
		}
	}()
	defer func() {
		close(queue)
		<-done
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			// Only react to Create; Write fires repeatedly while the file
			// is still being copied in.
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".pdf") {
				continue
			}
			select {
			case queue <- event.Name:
			default:
				log.Printf("[watch] queue full, dropping %s", event.Name)
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			log.Printf("[watch] watcher error: %v", err)
		}
	}
}
