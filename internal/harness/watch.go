// Copyright 2026 The DataMate-Ops Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/JasonW404-HW/DataMate-Ops/internal/log"
)

// DefaultDebounce coalesces bursts of filesystem events (editors write
// multiple times per save) into one batch rerun.
const DefaultDebounce = 500 * time.Millisecond

// WatchSpec describes a watch session: the batch to rerun and the paths
// whose changes trigger a rerun (typically the dataset source directory
// and the bundle's metadata artifact).
type WatchSpec struct {
	// Batch is rerun on every (debounced) change.
	Batch BatchSpec

	// Paths are the files and directories to watch.
	Paths []string

	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration

	// CollectSamples, when set, re-collects the batch's samples before
	// each rerun so newly added source files are picked up.
	CollectSamples func() (*BatchSpec, error)
}

// Watch runs the batch once, then reruns it whenever a watched path
// changes, until the context is cancelled. Each batch report is handed
// to onBatch. Watch is a local-debug convenience; it returns the context
// error on cancellation.
func (h *Harness) Watch(ctx context.Context, spec WatchSpec, onBatch func(*BatchReport)) error {
	if len(spec.Paths) == 0 {
		return fmt.Errorf("watch needs at least one path")
	}

	debounce := spec.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	for _, path := range spec.Paths {
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
	}

	logger := log.WithComponent(h.logger, "watch")
	logger.Info("watching for changes",
		log.String(log.OperatorKey, spec.Batch.Identifier),
		log.Int("paths", len(spec.Paths)),
	)

	rerun := func() error {
		batchSpec := spec.Batch
		// Drop the cached descriptor so bundle edits are picked up.
		h.registry.Invalidate(batchSpec.Identifier)
		if spec.CollectSamples != nil {
			fresh, err := spec.CollectSamples()
			if err != nil {
				logger.Warn("sample re-collection failed", log.Error(err))
				return nil
			}
			batchSpec = *fresh
		}

		report, err := h.RunBatch(ctx, batchSpec)
		if err != nil {
			// Resolution, validation, and construction errors end the
			// session: reruns would fail identically.
			return err
		}
		if onBatch != nil {
			onBatch(report)
		}
		return nil
	}

	if err := rerun(); err != nil {
		return err
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("change detected", log.String("path", event.Name), log.String(log.EventKey, event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if err := rerun(); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", log.Error(err))
		}
	}
}
