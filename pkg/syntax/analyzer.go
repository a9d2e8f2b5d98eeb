package syntax

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ritzau/forge-graph/pkg/logging"
	"github.com/ritzau/forge-graph/pkg/project"
)

// Analyzer runs syntax queries over a project's sources
type Analyzer struct {
	sources project.SourceIndex
	log     *slog.Logger
}

// New creates an analyzer over a source index
func New(sources project.SourceIndex) *Analyzer {
	return &Analyzer{sources: sources, log: logging.New("syntax")}
}

// AnalyzeScript parses one script file
func (a *Analyzer) AnalyzeScript(path string) (*ScriptInfo, error) {
	path = project.NormalizePath(path)
	text, err := a.sources.ReadSource(path)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			return nil, fmt.Errorf("script %s: %w", path, project.ErrNotFound)
		}
		return nil, err
	}
	return ParseScript(path, text), nil
}

// scriptFile is a loaded and pre-processed source file
type scriptFile struct {
	path string
	src  *source
	info *ScriptInfo
}

// load reads every script under scope. Unreadable files are skipped.
func (a *Analyzer) load(scope string) ([]*scriptFile, error) {
	paths, err := a.sources.SourceFiles(scope)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	files := make([]*scriptFile, 0, len(paths))
	for _, p := range paths {
		text, err := a.sources.ReadSource(p)
		if err != nil {
			a.log.Debug("Skipping unreadable source", "file", p, "error", err)
			continue
		}
		files = append(files, &scriptFile{path: p, src: newSource(text), info: ParseScript(p, text)})
	}
	return files, nil
}
