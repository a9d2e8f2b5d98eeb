package finder

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// Extensions of the files the index cares about
const (
	ScriptExt = ".cs"
	SceneExt  = ".unity"
)

// generated directories of an editor project that never hold sources
var skipDirs = map[string]bool{
	".git":    true,
	"Library": true,
	"Temp":    true,
	"Logs":    true,
	"obj":     true,
	"Build":   true,
	"Builds":  true,
}

// FindFiles walks the project directory and returns the project-relative,
// slash-separated paths of all files with one of the given extensions,
// excluding generated directories and anything matched by the root .gitignore.
func FindFiles(projectRoot string, exts ...string) ([]string, error) {
	matcher, err := loadGitignore(projectRoot)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(exts))
	for _, ext := range exts {
		wanted[strings.ToLower(ext)] = true
	}

	var files []string
	err = filepath.WalkDir(projectRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(projectRoot, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if skipDirs[d.Name()] || matcher != nil && matcher.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !wanted[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// FindSourceFiles returns every script file of the project
func FindSourceFiles(projectRoot string) ([]string, error) {
	return FindFiles(projectRoot, ScriptExt)
}

// FindSceneFiles returns every scene file of the project
func FindSceneFiles(projectRoot string) ([]string, error) {
	return FindFiles(projectRoot, SceneExt)
}

// FindDirs returns the project root and every directory the file walk
// would descend into, as absolute paths. The watcher subscribes to these.
func FindDirs(projectRoot string) ([]string, error) {
	matcher, err := loadGitignore(projectRoot)
	if err != nil {
		return nil, err
	}

	var dirs []string
	err = filepath.WalkDir(projectRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(projectRoot, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && (skipDirs[d.Name()] || matcher != nil && matcher.MatchesPath(rel+"/")) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs, err
}

// Ignored reports whether a directory name is one of the generated
// directories every walk skips
func Ignored(name string) bool {
	return skipDirs[name]
}

// InScope reports whether a project-relative path lies under scope.
// An empty scope matches everything.
func InScope(path, scope string) bool {
	scope = strings.Trim(filepath.ToSlash(scope), "/")
	if scope == "" || scope == "." {
		return true
	}
	path = filepath.ToSlash(path)
	return path == scope || strings.HasPrefix(path, scope+"/")
}

// FilterScope keeps the paths under scope
func FilterScope(paths []string, scope string) []string {
	var out []string
	for _, p := range paths {
		if InScope(p, scope) {
			out = append(out, p)
		}
	}
	return out
}

func loadGitignore(projectRoot string) (*ignore.GitIgnore, error) {
	path := filepath.Join(projectRoot, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return ignore.CompileIgnoreFile(path)
}
