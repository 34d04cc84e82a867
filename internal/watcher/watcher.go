// Package watcher supplements spec.md §6's workspace/didChangeWatchedFiles
// with an actual filesystem watch: the teacher's DirectoryLoader-
// equivalent only runs once at startup, so edits made outside the editor
// (git checkout, an external formatter, another process) never reach the
// server unless the client itself re-sends the notification. glint
// watches the workspace root with github.com/fsnotify/fsnotify and
// synthesizes the same Created/Deleted/Changed events DidChangeWatchedFiles
// carries, the way this retrieval pack's AleutianFOSS services watch
// their source trees.
package watcher

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("glint.watcher")

// ChangeKind mirrors the three workspace/didChangeWatchedFiles change
// types glint's core already handles.
type ChangeKind int

const (
	Created ChangeKind = iota
	Changed
	Deleted
)

// Event is one synthesized file-system change.
type Event struct {
	URI  string
	Kind ChangeKind
}

// Watcher wraps an fsnotify.Watcher recursively rooted at one directory.
type Watcher struct {
	fsw *fsnotify.Watcher
	out chan Event
}

// New starts watching root (and every subdirectory present at call time)
// for changes, delivering synthesized Events on the returned channel
// until Close is called.
func New(root string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{fsw: fsw, out: make(chan Event, 64)}

	if err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if err := fsw.Add(path); err != nil {
				log.Warning("cannot watch directory", "dir", path, "error", err)
			}
		}
		return nil
	}); err != nil {
		fsw.Close()
		return nil, err
	}

	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				close(w.out)
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				continue
			}
			log.Warning("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	uri := pathToURI(ev.Name)
	switch {
	case ev.Op&fsnotify.Create != 0:
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(ev.Name); err != nil {
				log.Warning("cannot watch new directory", "dir", ev.Name, "error", err)
			}
			return
		}
		w.emit(Event{URI: uri, Kind: Created})
	case ev.Op&fsnotify.Remove != 0:
		w.emit(Event{URI: uri, Kind: Deleted})
	case ev.Op&(fsnotify.Write|fsnotify.Rename) != 0:
		w.emit(Event{URI: uri, Kind: Changed})
	}
}

func (w *Watcher) emit(e Event) {
	select {
	case w.out <- e:
	default:
		log.Warning("dropping watch event: channel full", "uri", e.URI)
	}
}

// Events returns the channel of synthesized file-system changes.
func (w *Watcher) Events() <-chan Event {
	return w.out
}

// Close stops watching and releases the underlying fsnotify.Watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func pathToURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	abs = filepath.ToSlash(abs)
	if len(abs) == 0 || abs[0] != '/' {
		abs = "/" + abs
	}
	return "file://" + abs
}
