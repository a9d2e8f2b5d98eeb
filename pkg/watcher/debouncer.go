package watcher

import (
	"context"
	"time"
)

// Debouncer batches bursts of file system events, e.g. an editor saving a
// scene and its scripts, into at most one event per change type.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer. Events are released after
// quietPeriod without input, or maxWait after the first held event.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	var (
		quiet       = stoppedTimer()
		deadline    = stoppedTimer()
		waiting     bool
		accumulated = make(map[ChangeType][]string)
		seen        = make(map[string]bool)
		eventCount  int
	)
	defer close(d.output)

	flush := func() {
		quiet.Stop()
		deadline.Stop()
		waiting = false
		if eventCount == 0 {
			return
		}

		log.Debug("Flushing accumulated events", "count", eventCount)

		// A snapshot reload rescans the file lists too, so it absorbs the rest
		if snap := accumulated[ChangeTypeSnapshot]; len(snap) > 0 {
			paths := append(snap, accumulated[ChangeTypeSource]...)
			paths = append(paths, accumulated[ChangeTypeScene]...)
			d.output <- ChangeEvent{Type: ChangeTypeSnapshot, Paths: paths, Timestamp: time.Now()}
		} else {
			for _, t := range []ChangeType{ChangeTypeSource, ChangeTypeScene} {
				if paths := accumulated[t]; len(paths) > 0 {
					d.output <- ChangeEvent{Type: t, Paths: paths, Timestamp: time.Now()}
				}
			}
		}

		accumulated = make(map[ChangeType][]string)
		seen = make(map[string]bool)
		eventCount = 0
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			for _, p := range event.Paths {
				if !seen[p] {
					seen[p] = true
					accumulated[event.Type] = append(accumulated[event.Type], p)
				}
			}
			eventCount++

			quiet.Reset(d.quietPeriod)
			if !waiting {
				waiting = true
				deadline.Reset(d.maxWait)
			}

		case <-quiet.C:
			flush()

		case <-deadline.C:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

func stoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	t.Stop()
	return t
}
