// Command forge-graph analyzes an exported game project: class dependencies,
// scene references, scene transitions, integrity issues and script syntax.
//
// One-shot:
//
//	forge-graph --project ./Game analyze_class Game.Player --format dot
//
// Server:
//
//	forge-graph --project ./Game --serve --watch
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ritzau/forge-graph/pkg/analysis"
	"github.com/ritzau/forge-graph/pkg/catalog"
	"github.com/ritzau/forge-graph/pkg/command"
	"github.com/ritzau/forge-graph/pkg/config"
	"github.com/ritzau/forge-graph/pkg/logging"
	"github.com/ritzau/forge-graph/pkg/output"
	"github.com/ritzau/forge-graph/pkg/watcher"
	"github.com/ritzau/forge-graph/pkg/web"
)

// Change batches are released after this much quiet, or after maxWait
const (
	quietPeriod = 300 * time.Millisecond
	maxWait     = 2 * time.Second
)

// errOperationFailed makes the process exit non-zero after printing a failed response
var errOperationFailed = errors.New("operation failed")

func main() {
	f := pflag.NewFlagSet("forge-graph", pflag.ExitOnError)
	f.StringP("project", "p", ".", "Path to the project root")
	f.Bool("serve", false, "Serve the HTTP API instead of running one operation")
	f.Int("port", 8080, "Port for the HTTP API (only used with --serve)")
	f.Bool("watch", false, "Reload the project when files change (only used with --serve)")
	f.StringP("operation", "o", "", "Operation to run, also accepted as the first argument")
	f.StringP("target", "t", "", "Primary parameter of the operation, also accepted as the second argument")
	f.StringP("format", "f", "json", "Graph format: json, dot, mermaid or summary")
	f.StringArray("param", nil, "Operation parameter as key=value (repeatable)")
	f.Int("depth", 2, "Default traversal depth for class dependency operations")
	f.Int("top-n", 10, "Files kept in detail by analyze_metrics")
	f.Int("suggestion-limit", 5, "Replacement candidates listed by name in null reference suggestions")
	f.String("component-base", catalog.DefaultMarkers().ComponentBase, "Base class of scene components")
	f.String("asset-base", catalog.DefaultMarkers().AssetBase, "Base class of data assets")
	f.String("verbosity", "", "Log level: trace, debug, info, warn or error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	if err := f.Parse(os.Args[1:]); err != nil {
		logging.Fatal("Invalid arguments", "error", err)
	}

	cfg, err := config.Load(f)
	if err != nil {
		logging.Fatal("Failed to load configuration", "error", err)
	}
	applyArgs(cfg, f.Args())
	logging.SetLevel(logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := command.Options{
		Markers: catalog.Markers{
			ComponentBase: cfg.Markers.ComponentBase,
			AssetBase:     cfg.Markers.AssetBase,
		},
		Depth:           cfg.Analysis.Depth,
		MetricsTopN:     cfg.Analysis.MetricsTopN,
		SuggestionLimit: cfg.Analysis.SuggestionLimit,
	}

	switch {
	case cfg.Serve:
		err = serve(ctx, cfg, opts)
	case cfg.Operation != "":
		err = runOnce(ctx, cfg, opts)
	default:
		fmt.Fprintf(os.Stderr, "Usage: forge-graph [flags] <operation> [target]\n\nFlags:\n%s\nOperations:\n", f.FlagUsages())
		for _, op := range command.NewDispatcher(nil, opts).Operations() {
			fmt.Fprintf(os.Stderr, "  %s\n", op)
		}
		os.Exit(2)
	}

	if errors.Is(err, errOperationFailed) {
		os.Exit(1)
	}
	if err != nil {
		logging.Fatal("forge-graph failed", "error", err)
	}
}

// applyArgs fills the operation and target from positional arguments
func applyArgs(cfg *config.Config, args []string) {
	if len(args) > 0 && cfg.Operation == "" {
		cfg.Operation = args[0]
		args = args[1:]
	}
	if len(args) > 0 && cfg.Target == "" {
		cfg.Target = args[0]
	}
}

// buildParams merges the target, format and key=value pairs into request
// parameters. Explicit pairs win.
func buildParams(cfg *config.Config) (command.Params, error) {
	params := command.Params{}
	if cfg.Target != "" {
		params["target"] = cfg.Target
	}
	if cfg.Format != "" {
		params["format"] = cfg.Format
	}
	for _, pair := range cfg.Params {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("parameter %q is not key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}

func runOnce(ctx context.Context, cfg *config.Config, opts command.Options) error {
	params, err := buildParams(cfg)
	if err != nil {
		return err
	}

	dispatcher := command.NewDispatcher(nil, opts)
	runner := analysis.NewRunner(cfg.Project, dispatcher, nil)
	if err := runner.Run(ctx, analysis.RunOptions{Reason: "initial load"}); err != nil {
		return err
	}

	resp := dispatcher.Execute(ctx, command.Request{Operation: cfg.Operation, Params: params})
	if err := output.PrintResponse(os.Stdout, resp); err != nil {
		return err
	}
	if !resp.Success {
		return errOperationFailed
	}
	return nil
}

func serve(ctx context.Context, cfg *config.Config, opts command.Options) error {
	dispatcher := command.NewDispatcher(nil, opts)
	server := web.NewServer(dispatcher)
	runner := analysis.NewRunner(cfg.Project, dispatcher, server.Publisher())
	server.SetReloader(runner)

	// Serve right away; requests report 503 until the first load completes
	go func() {
		if err := runner.Run(ctx, analysis.RunOptions{Reason: "initial load"}); err != nil {
			logging.Error("Initial load failed", "error", err)
		}
	}()

	if cfg.Watch {
		fw, err := watcher.NewFileWatcher(cfg.Project)
		if err != nil {
			return fmt.Errorf("creating file watcher: %w", err)
		}
		defer fw.Stop()
		if err := fw.Start(ctx); err != nil {
			return fmt.Errorf("starting file watcher: %w", err)
		}

		debouncer := watcher.NewDebouncer(fw.Events(), quietPeriod, maxWait)
		debouncer.Start(ctx)
		go runner.Watch(ctx, debouncer.Output())
		logging.Info("Watching for changes", "project", cfg.Project)
	}

	return server.Start(ctx, cfg.Port)
}
