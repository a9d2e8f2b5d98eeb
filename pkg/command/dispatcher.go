// Package command maps named operations with flat parameters onto the
// analyzers and encodes their results.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ritzau/forge-graph/pkg/catalog"
	"github.com/ritzau/forge-graph/pkg/lens"
	"github.com/ritzau/forge-graph/pkg/logging"
	"github.com/ritzau/forge-graph/pkg/model"
	"github.com/ritzau/forge-graph/pkg/project"
	"github.com/ritzau/forge-graph/pkg/snapshot"
)

// Error kinds reported in a Response
const (
	ErrorNotFound      = "not_found"
	ErrorInvalidParams = "invalid_params"
	ErrorInternal      = "internal"
)

// ErrNoProject is returned while no snapshot has been loaded
var ErrNoProject = errors.New("no project loaded")

// Request names an operation and its parameters
type Request struct {
	Operation string `json:"operation"`
	Params    Params `json:"params"`
}

// Response is the outcome of one request. Result holds the graph dictionary
// for json, the rendered text for the other graph formats, or the structured
// result of non-graph operations.
type Response struct {
	Success   bool   `json:"success"`
	Operation string `json:"operation"`
	Format    string `json:"format,omitempty"`
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"errorKind,omitempty"`
}

// Options are the analysis defaults taken from configuration
type Options struct {
	Markers         catalog.Markers
	Depth           int
	MetricsTopN     int
	SuggestionLimit int
}

// DefaultOptions returns the defaults used when nothing is configured
func DefaultOptions() Options {
	return Options{
		Markers:         catalog.DefaultMarkers(),
		Depth:           2,
		MetricsTopN:     10,
		SuggestionLimit: 5,
	}
}

// Dispatcher executes requests against the current snapshot. Reads run
// concurrently; remove_missing_scripts and snapshot swaps are exclusive.
type Dispatcher struct {
	mu   sync.RWMutex
	snap *snapshot.Snapshot
	opts Options
	log  *slog.Logger
}

// NewDispatcher creates a dispatcher. The snapshot may be nil until the
// first load completes.
func NewDispatcher(snap *snapshot.Snapshot, opts Options) *Dispatcher {
	return &Dispatcher{snap: snap, opts: opts, log: logging.New("command")}
}

// Snapshot returns the snapshot requests currently run against
func (d *Dispatcher) Snapshot() *snapshot.Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snap
}

// SetSnapshot swaps in a new snapshot once running requests finish
func (d *Dispatcher) SetSnapshot(snap *snapshot.Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snap = snap
}

// Operations lists the supported operation names in sorted order
func (d *Dispatcher) Operations() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs one request. Failures are reported in the response, never
// as a Go error.
func (d *Dispatcher) Execute(ctx context.Context, req Request) (resp *Response) {
	start := time.Now()
	resp = &Response{Operation: req.Operation}

	op, ok := operations[req.Operation]
	if !ok {
		return d.fail(resp, fmt.Errorf("operation %q: %w", req.Operation, project.ErrNotFound))
	}
	if err := ctx.Err(); err != nil {
		return d.fail(resp, err)
	}

	params := req.Params
	if params == nil {
		params = Params{}
	}
	// "target" stands in for the operation's primary parameter
	if op.target != "" {
		if _, set := params[op.target]; !set {
			if t, has := params["target"]; has {
				params = withParam(params, op.target, t)
			}
		}
	}

	format, err := params.String("format")
	if err != nil {
		return d.fail(resp, err)
	}
	format = strings.ToLower(format)
	if format == "" {
		format = model.FormatJSON
	}
	if !validFormat(format) {
		return d.fail(resp, fmt.Errorf("format %q (want one of %s): %w",
			format, strings.Join(model.Formats, ", "), ErrInvalidParams))
	}

	if op.write {
		d.mu.Lock()
		defer d.mu.Unlock()
	} else {
		d.mu.RLock()
		defer d.mu.RUnlock()
	}
	if d.snap == nil {
		return d.fail(resp, ErrNoProject)
	}

	defer func() {
		if r := recover(); r != nil {
			d.log.ErrorContext(ctx, "Operation panicked", "operation", req.Operation, "panic", r)
			resp = d.fail(&Response{Operation: req.Operation}, fmt.Errorf("operation %s panicked: %v", req.Operation, r))
		}
	}()

	result, err := op.run(&env{snap: d.snap, opts: d.opts}, params)
	if err != nil {
		return d.fail(resp, err)
	}

	if g, isGraph := result.(*model.GraphResult); isGraph {
		cfg, err := lensConfig(params)
		if err != nil {
			return d.fail(resp, err)
		}
		g = lens.Apply(g, cfg)
		resp.Format = format
		if format == model.FormatJSON {
			resp.Result = g.ToDictionary()
		} else {
			text, err := g.Encode(format)
			if err != nil {
				return d.fail(resp, err)
			}
			resp.Result = text
		}
	} else {
		// Non-graph results have a single structured form
		resp.Format = model.FormatJSON
		resp.Result = result
	}

	resp.Success = true
	d.log.DebugContext(ctx, "Executed operation",
		"operation", req.Operation,
		"format", resp.Format,
		"duration", time.Since(start))
	return resp
}

func (d *Dispatcher) fail(resp *Response, err error) *Response {
	resp.Success = false
	resp.Error = err.Error()
	resp.ErrorKind = Kind(err)
	if resp.ErrorKind == ErrorInternal {
		d.log.Warn("Operation failed", "operation", resp.Operation, "error", err)
	} else {
		d.log.Debug("Operation rejected", "operation", resp.Operation, "error", err)
	}
	return resp
}

// Kind classifies an error into one of the response error kinds
func Kind(err error) string {
	switch {
	case errors.Is(err, project.ErrNotFound):
		return ErrorNotFound
	case errors.Is(err, ErrInvalidParams), errors.Is(err, project.ErrInvalidArgument):
		return ErrorInvalidParams
	default:
		return ErrorInternal
	}
}

func validFormat(format string) bool {
	for _, f := range model.Formats {
		if f == format {
			return true
		}
	}
	return false
}

func lensConfig(p Params) (lens.Config, error) {
	focus, err := p.String("focus")
	if err != nil {
		return lens.Config{}, err
	}
	radius, err := p.Int("radius", lens.DefaultRadius)
	if err != nil {
		return lens.Config{}, err
	}
	if radius < 0 {
		return lens.Config{}, fmt.Errorf("radius must not be negative: %w", ErrInvalidParams)
	}
	hide, err := p.Bool("hide_builtins", false)
	if err != nil {
		return lens.Config{}, err
	}
	relations, err := p.String("relations")
	if err != nil {
		return lens.Config{}, err
	}
	return lens.Config{
		Focus:        lens.ParseList(focus),
		Radius:       radius,
		Relations:    lens.ParseList(relations),
		HideBuiltins: hide,
	}, nil
}

// withParam returns a copy of p with key set, leaving the caller's map alone
func withParam(p Params, key string, value any) Params {
	out := make(Params, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[key] = value
	return out
}
