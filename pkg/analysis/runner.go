// Package analysis keeps the project snapshot current: it loads it, reloads
// or rescans it on file changes, and announces each state on the project
// status topic.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ritzau/forge-graph/pkg/logging"
	"github.com/ritzau/forge-graph/pkg/pubsub"
	"github.com/ritzau/forge-graph/pkg/snapshot"
	"github.com/ritzau/forge-graph/pkg/watcher"
)

// SnapshotHolder is where the runner installs each new snapshot
type SnapshotHolder interface {
	Snapshot() *snapshot.Snapshot
	SetSnapshot(*snapshot.Snapshot)
}

// RunOptions configures one run
type RunOptions struct {
	// FullReload reads the exported state again. Otherwise only the script
	// and scene file lists are refreshed, unless nothing is loaded yet.
	FullReload bool
	Reason     string // e.g. "initial load", "snapshot changed"
}

// Runner orchestrates snapshot loads
type Runner struct {
	root      string
	holder    SnapshotHolder
	publisher pubsub.Publisher // nil disables status events
	log       *slog.Logger

	mu         sync.Mutex // Prevent concurrent runs
	generation int
}

// NewRunner creates a runner for the project at root
func NewRunner(root string, holder SnapshotHolder, publisher pubsub.Publisher) *Runner {
	return &Runner{
		root:      root,
		holder:    holder,
		publisher: publisher,
		log:       logging.New("analysis"),
	}
}

// Generation counts the snapshots installed so far
func (r *Runner) Generation() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

// Run loads or refreshes the snapshot. On failure the previous snapshot stays
// installed and a failed status is published.
func (r *Runner) Run(ctx context.Context, opts RunOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.holder.Snapshot()
	state := pubsub.StateReloading
	if current == nil {
		state = pubsub.StateLoading
	}
	r.log.InfoContext(ctx, "Starting snapshot load", "reason", opts.Reason, "full", opts.FullReload || current == nil)
	r.publish(pubsub.ProjectStatus{State: state, Message: opts.Reason, Root: r.root, Generation: r.generation})

	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}

	var next *snapshot.Snapshot
	var err error
	if opts.FullReload || current == nil {
		next, err = snapshot.Load(r.root)
	} else {
		next, err = current.Rescan()
	}
	if err != nil {
		return r.fail(fmt.Errorf("loading %s: %w", r.root, err))
	}

	r.generation++
	r.holder.SetSnapshot(next)

	stats := next.Stats()
	r.log.InfoContext(ctx, "Snapshot ready",
		"generation", r.generation,
		"types", stats.Types,
		"sources", stats.Sources,
		"scenes", stats.Scenes)
	r.publish(pubsub.ProjectStatus{
		State:      pubsub.StateReady,
		Message:    opts.Reason,
		Root:       r.root,
		Generation: r.generation,
		Types:      stats.Types,
		Sources:    stats.Sources,
		Scenes:     stats.Scenes,
	})
	return nil
}

func (r *Runner) fail(err error) error {
	r.log.Error("Snapshot load failed", "error", err)
	r.publish(pubsub.ProjectStatus{
		State:      pubsub.StateFailed,
		Message:    "Snapshot load failed",
		Root:       r.root,
		Generation: r.generation,
		Error:      err.Error(),
	})
	return err
}

func (r *Runner) publish(status pubsub.ProjectStatus) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(pubsub.TopicProjectStatus, status.State, status); err != nil {
		r.log.Warn("Failed to publish project status", "state", status.State, "error", err)
	}
}

// HandleChange runs whatever a debounced change batch requires
func (r *Runner) HandleChange(ctx context.Context, event watcher.ChangeEvent) error {
	analysis := watcher.AnalyzeChanges(event)
	if !analysis.NeedReload && !analysis.NeedRescan {
		return nil
	}
	return r.Run(ctx, RunOptions{
		FullReload: analysis.NeedReload,
		Reason:     fmt.Sprintf("%s changed (%d files)", event.Type, len(analysis.ChangedFiles)),
	})
}

// Watch applies change batches until the channel closes or ctx is done.
// Failed runs are logged and watching continues.
func (r *Runner) Watch(ctx context.Context, events <-chan watcher.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := r.HandleChange(ctx, event); err != nil {
				r.log.Warn("Keeping previous snapshot", "error", err)
			}
		}
	}
}
