// Package loader implements the DirectoryLoader (spec §4.8): initial
// workspace enumeration that populates the DocumentStore with disk-backed
// entries without opening any of them in memory.
//
// Generalized from the teacher's pkg/cache directory walker (a raw
// filepath.Walk feeding a sync.WaitGroup-guarded channel) to a bounded,
// cancellable fan-out over golang.org/x/sync/errgroup, since the
// teacher's version neither bounds concurrency nor honors the language's
// packaging rules (an uninitialized-package subtree must be skipped).
package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"glint/internal/corelsp/docstore"
)

var log = commonlog.GetLogger("glint.loader")

// maxConcurrentDirs bounds how many subdirectories are scanned at once.
const maxConcurrentDirs = 8

// PackagingRules decides, for a directory, whether it is a valid package
// root — e.g. "does it contain an __init__ file for this language
// version" — and what source files within it are analyzable.
type PackagingRules interface {
	// RequiresInitFile reports whether a subdirectory must carry an init
	// file to be treated as part of the workspace.
	RequiresInitFile() bool
	// HasInitFile reports whether dir contains the required init file.
	HasInitFile(dir string) bool
	// IsSourceFile reports whether name names a source file the
	// workspace should track.
	IsSourceFile(name string) bool
	// Analyzable reports whether a file with this name should be
	// enqueued for analysis (as opposed to tracked read-only).
	Analyzable(name string) bool
}

// FileFoundFunc is invoked once per discovered source file, in enumeration
// order within a directory (not across the whole tree).
type FileFoundFunc func(uri string, path string)

// Loader enumerates a workspace root and populates store with disk-backed
// entries. Entries it creates have a nil Document — the loader never
// opens a file itself; that happens on didOpen or an explicit load (spec
// §4.8, §3's Document Entry lifecycle).
type Loader struct {
	store   *docstore.Store
	rules   PackagingRules
	onFound FileFoundFunc
}

func New(store *docstore.Store, rules PackagingRules, onFound FileFoundFunc) *Loader {
	return &Loader{store: store, rules: rules, onFound: onFound}
}

// Load enumerates rootDir non-recursively for source files, firing
// FileFound for each, then recurses into subdirectories unless the
// packaging rules require an (absent) init file, in which case that
// subtree is skipped entirely.
func (l *Loader) Load(ctx context.Context, rootDir string) error {
	return l.loadDir(ctx, rootDir)
}

func (l *Loader) loadDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warning("cannot read directory", "dir", dir, "error", err)
		return nil
	}

	var subdirs []string
	for _, de := range entries {
		if de.IsDir() {
			subdirs = append(subdirs, filepath.Join(dir, de.Name()))
			continue
		}
		if !l.rules.IsSourceFile(de.Name()) {
			continue
		}
		l.addFile(filepath.Join(dir, de.Name()))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDirs)

	for _, sub := range subdirs {
		sub := sub
		if l.rules.RequiresInitFile() && !l.rules.HasInitFile(sub) {
			continue
		}
		g.Go(func() error {
			return l.loadDir(gctx, sub)
		})
	}

	return g.Wait()
}

func (l *Loader) addFile(path string) {
	uri := pathToURI(path)
	analyzable := l.rules.Analyzable(filepath.Base(path))

	l.store.GetOrAdd(uri, docstore.NewEntry(uri, nil, analyzable))

	if l.onFound != nil {
		l.onFound(uri, path)
	}
}

func pathToURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs
	}
	return "file://" + abs
}
