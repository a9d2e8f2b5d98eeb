// Package watcher reports changes to a project directory so the served
// snapshot can be reloaded.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/forge-graph/pkg/finder"
	"github.com/ritzau/forge-graph/pkg/logging"
	"github.com/ritzau/forge-graph/pkg/snapshot"
)

var log = logging.New("watcher")

// ChangeType represents the type of file change detected
type ChangeType int

const (
	// ChangeTypeSnapshot is an exported state file under forge-snapshot/
	ChangeTypeSnapshot ChangeType = iota
	// ChangeTypeSource is a script file
	ChangeTypeSource
	// ChangeTypeScene is a scene file
	ChangeTypeScene
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeSnapshot:
		return "snapshot"
	case ChangeTypeSource:
		return "source"
	case ChangeTypeScene:
		return "scene"
	}
	return "unknown"
}

// batchDelay groups the burst of events a single save produces
const batchDelay = 100 * time.Millisecond

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// FileWatcher watches a project directory for file changes
type FileWatcher struct {
	watcher *fsnotify.Watcher
	root    string
	events  chan ChangeEvent
	once    sync.Once
}

// NewFileWatcher creates a new file system watcher for a project directory
func NewFileWatcher(root string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		root:    root,
		events:  make(chan ChangeEvent, 100),
	}, nil
}

// Start subscribes to every project directory and processes events until
// ctx is done
func (fw *FileWatcher) Start(ctx context.Context) error {
	dirs, err := finder.FindDirs(fw.root)
	if err != nil {
		return fmt.Errorf("failed to walk project: %w", err)
	}
	for _, dir := range dirs {
		fw.add(dir)
	}
	log.Info("Started watching project", "path", fw.root, "directories", len(dirs))

	go fw.processEvents(ctx)
	return nil
}

func (fw *FileWatcher) add(dir string) {
	if err := fw.watcher.Add(dir); err != nil {
		log.Warn("Failed to watch directory", "path", dir, "error", err)
	}
}

// Classify maps a changed path to its change type. Paths outside the
// interesting set report false.
func Classify(root, path string) (ChangeType, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0, false
	}
	rel = filepath.ToSlash(rel)
	ext := strings.ToLower(filepath.Ext(rel))

	switch {
	case strings.HasPrefix(rel, snapshot.ExportDir+"/") && (ext == ".yaml" || ext == ".yml"):
		return ChangeTypeSnapshot, true
	case ext == finder.ScriptExt:
		return ChangeTypeSource, true
	case ext == finder.SceneExt:
		return ChangeTypeScene, true
	}
	return 0, false
}

// processEvents batches file system events by type
func (fw *FileWatcher) processEvents(ctx context.Context) {
	pending := make(map[ChangeType][]string)

	flushTimer := time.NewTimer(batchDelay)
	flushTimer.Stop()

	flush := func() {
		for _, t := range []ChangeType{ChangeTypeSnapshot, ChangeTypeSource, ChangeTypeScene} {
			if len(pending[t]) == 0 {
				continue
			}
			fw.events <- ChangeEvent{Type: t, Paths: pending[t], Timestamp: time.Now()}
		}
		pending = make(map[ChangeType][]string)
	}

	defer close(fw.events)
	defer fw.Stop()
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// New directories need their own watch
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !finder.Ignored(info.Name()) {
					fw.add(event.Name)
					continue
				}
			}

			if t, ok := Classify(fw.root, event.Name); ok {
				log.Debug("File changed", "path", event.Name, "type", t, "op", event.Op.String())
				pending[t] = append(pending[t], event.Name)
				flushTimer.Reset(batchDelay)
			}

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Error("Watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events. It is closed when the
// watcher stops.
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Stop stops the file watcher. The event loop exits and closes Events.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.once.Do(func() {
		err = fw.watcher.Close()
	})
	return err
}
