// Package scanner discovers the git repositories of a workspace directory
// so a whole tree of checkouts can be swept in one run.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agrahamlincoln/branchsweep/pkg/git"
)

// IndexFile is the optional per-directory file that groups repositories
// into subdirectories and hides others from the sweep.
const IndexFile = ".branchsweep.yaml"

type index struct {
	Groups  []string `yaml:"groups"`
	Ignores []string `yaml:"ignores"`
}

// Options controls scanning behavior.
type Options struct {
	// ExcludePatterns are filepath.Match globs tested against directory
	// names.
	ExcludePatterns []string
}

// Scan returns the repositories directly under root, sorted. When a
// directory holds an index file, its groups are descended into and its
// ignores skipped. Hidden directories are always skipped, and symlink
// cycles are visited once.
func Scan(root string, opts Options) ([]string, error) {
	w := walker{opts: opts, visited: make(map[string]bool)}
	if err := w.walk(root); err != nil {
		return nil, err
	}
	sort.Strings(w.repos)
	return w.repos, nil
}

type walker struct {
	opts    Options
	visited map[string]bool
	repos   []string
}

func (w *walker) walk(dir string) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", dir, err)
	}
	if w.visited[resolved] {
		return nil
	}
	w.visited[resolved] = true

	idx, err := readIndex(dir)
	if err != nil {
		return err
	}
	groups := toSet(idx.Groups)
	ignores := toSet(idx.Ignores)

	for _, g := range idx.Groups {
		if ignores[g] {
			continue
		}
		path := filepath.Join(dir, g)
		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			continue
		}
		if err := w.walk(path); err != nil {
			return err
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if groups[name] || ignores[name] || w.excluded(name) {
			continue
		}
		child := filepath.Join(dir, name)
		if git.IsRepo(child) {
			w.repos = append(w.repos, child)
		}
	}
	return nil
}

func (w *walker) excluded(name string) bool {
	for _, pattern := range w.opts.ExcludePatterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// readIndex parses dir's index file. A missing or empty file yields an
// empty index; unknown keys are an error.
func readIndex(dir string) (index, error) {
	path := filepath.Clean(filepath.Join(dir, IndexFile))
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return index{}, nil
	}
	if err != nil {
		return index{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return index{}, nil
	}

	var idx index
	if err := yaml.UnmarshalWithOptions(data, &idx, yaml.DisallowUnknownField()); err != nil {
		return index{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return idx, nil
}

func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, item := range items {
		s[item] = true
	}
	return s
}
