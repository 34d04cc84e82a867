// Package core wires the nine components spec.md §2 names into the
// single orchestration object glint's transport layer (internal/glspserver)
// drives: it owns the DocumentStore, queues, reconciler, pipeline,
// publisher, resolver, and loader, and supplies the glue the individual
// corelsp packages deliberately leave out — module naming, alias
// registration, and the delete/re-enqueue cascades spec.md §3 and §8's
// "Alias coherence" and "Module deletion cascade" describe — since none
// of URI-to-module-name derivation, disk I/O, or cross-component
// sequencing belongs in a single-purpose package like pipeline or
// docstore.
package core

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/tliron/commonlog"

	"glint/internal/corelsp/contract"
	"glint/internal/corelsp/docstore"
	"glint/internal/corelsp/lockutil"
	"glint/internal/corelsp/loader"
	"glint/internal/corelsp/pipeline"
	"glint/internal/corelsp/publish"
	"glint/internal/corelsp/queue"
	"glint/internal/corelsp/reconcile"
	"glint/internal/corelsp/resolve"
)

var log = commonlog.GetLogger("glint.core")

// maxAnalysisWorkers bounds the AnalysisQueue's worker pool, independent
// of the pipeline's own per-document parse-intent cap (spec §5).
const maxAnalysisWorkers = 4

// DocFactory builds an empty contract.Document for a newly tracked URI.
// Supplied by the caller (internal/glspserver) so this package never
// imports a concrete Document implementation.
type DocFactory func() contract.Document

// Options configures a Core.
type Options struct {
	Doc                DocFactory
	Parser             contract.Parser
	Analyzer           *contract.AnalyzerHandle
	Sink               publish.Sink
	Rules              loader.PackagingRules
	ManualFileLoad     bool
	CompletionsTimeout time.Duration
}

// Core is glint's ParseAnalyzePipeline orchestration object: the
// concrete wiring of DocumentStore, ParseQueue, AnalysisQueue,
// ChangeReconciler, DiagnosticPublisher, RequestResolver, and
// DirectoryLoader behind one API the transport layer calls into.
type Core struct {
	store         *docstore.Store
	parseQueue    *queue.ParseQueue
	analysisQueue *queue.AnalysisQueue
	publisher     *publish.Publisher
	pipeline      *pipeline.Pipeline
	reconciler    *reconcile.Reconciler
	resolver      *resolve.Resolver
	loader        *loader.Loader

	analyzer           *contract.AnalyzerHandle
	newDoc             DocFactory
	manualFileLoad     bool
	completionsTimeout time.Duration

	mu        lockutil.Mutex
	lastParse map[string]string // uri -> last parse cookie ID registered with the analyzer
}

// New builds a Core and starts its analysis workers. Core subscribes to
// the pipeline's OnParseComplete event itself; OnAnalysisComplete is left
// unset.
func New(opts Options) *Core {
	store := docstore.NewStore()
	parseQueue := queue.NewParseQueue()
	analysisQueue := queue.NewAnalysisQueue()
	pub := publish.New(opts.Sink)

	c := &Core{
		store:              store,
		parseQueue:         parseQueue,
		analysisQueue:      analysisQueue,
		publisher:          pub,
		analyzer:           opts.Analyzer,
		newDoc:             opts.Doc,
		manualFileLoad:     opts.ManualFileLoad,
		completionsTimeout: opts.CompletionsTimeout,
		lastParse:          make(map[string]string),
	}

	cb := pipeline.Callbacks{OnParseComplete: c.onParseComplete}
	c.pipeline = pipeline.New(store, parseQueue, analysisQueue, pub, opts.Parser, opts.Analyzer, cb)
	c.reconciler = reconcile.New(store, func(uri string) {
		c.pipeline.Enqueue(context.Background(), uri, queue.Normal, true)
	})
	c.resolver = resolve.New(store, opts.Analyzer)
	c.loader = loader.New(store, opts.Rules, c.FileFound)

	analysisQueue.Run(context.Background(), maxAnalysisWorkers)
	go c.logQueueErrors()

	return c
}

func (c *Core) logQueueErrors() {
	for err := range c.analysisQueue.Errors() {
		if errors.Is(err, context.Canceled) {
			log.Warning("analysis task cancelled", "error", err)
			continue
		}
		log.Error("analysis task failed", "error", err)
	}
}

// Store exposes the DocumentStore for transport-layer lookups (e.g.
// rendering completion items) that need entry metadata beyond what
// Resolver already returns.
func (c *Core) Store() *docstore.Store { return c.store }

// Resolver exposes the RequestResolver for the transport layer's read
// handlers.
func (c *Core) Resolver() *resolve.Resolver { return c.resolver }

// CompletionsTimeout returns the configured wait for RequestResolver's
// "current parse" preamble; negative means wait indefinitely (the
// resolved Open Question, spec §9).
func (c *Core) CompletionsTimeout() time.Duration { return c.completionsTimeout }

// DidOpen implements textDocument/didOpen (spec §6): (re)sets the
// entry's document to version/text, creating the entry if this URI has
// never been seen, per the idempotent-open law.
func (c *Core) DidOpen(ctx context.Context, uri string, version int, text string, analyzable bool) {
	base := docstore.Base(uri)
	part := docstore.GetPart(uri)

	entry, _ := c.store.GetOrAdd(base, docstore.NewEntry(base, nil, analyzable))
	doc := entry.EnsureDoc(c.newDoc)
	if err := doc.Reset(part, version, &text); err != nil {
		log.Error("didOpen reset failed", "uri", uri, "error", err)
		return
	}

	c.pipeline.Enqueue(ctx, base, queue.Normal, true)
}

// DidChange implements textDocument/didChange via the ChangeReconciler.
func (c *Core) DidChange(ctx context.Context, n reconcile.Notification) error {
	return c.reconciler.Apply(ctx, n)
}

// DidClose implements textDocument/didClose: resets the part to the
// disk-backed sentinel version (-1) without removing the entry, so a
// subsequent change notification for it still fails UnknownDocument only
// if no open preceded it (spec invariant 5).
func (c *Core) DidClose(uri string) error {
	base := docstore.Base(uri)
	part := docstore.GetPart(uri)
	entry, err := c.store.Get(base, true)
	if err != nil {
		return err
	}
	return entry.Close(part)
}

// Delete implements the Document Entry destruction path (spec §3): the
// entry is removed from the store, its reported-diagnostics record is
// forgotten, every module name it registered is removed from the
// analyzer, and every entry that imported any of those names is
// re-enqueued at Low priority (spec §8's "Module deletion cascade").
func (c *Core) Delete(ctx context.Context, uri string) {
	base := docstore.Base(uri)
	entry, ok := c.store.Remove(base)
	c.publisher.Forget(base)
	if !ok {
		return
	}

	analyzer := c.analyzer.Load()
	if analyzer == nil {
		return
	}
	for _, name := range entry.ModuleNames {
		if err := analyzer.RemoveModule(name); err != nil {
			log.Warning("remove module failed", "module", name, "error", err)
		}
		for _, importer := range analyzer.EntriesImporting(name, true) {
			c.pipeline.Enqueue(ctx, importer.URI(), queue.Low, true)
		}
	}
}

// Reload implements workspace/didChangeConfiguration: reload every
// module in the analyzer, then re-enqueue every known entry at Normal
// priority (spec §6).
func (c *Core) Reload(ctx context.Context) {
	analyzer := c.analyzer.Load()
	if analyzer == nil {
		return
	}
	if err := analyzer.ReloadModules(); err != nil {
		log.Error("reload modules failed", "error", err)
	}
	c.store.Range(func(entry *docstore.Entry) bool {
		c.pipeline.Enqueue(ctx, entry.URI, queue.Normal, true)
		return true
	})
}

// WatchedFileChanged implements workspace/didChangeWatchedFiles for a
// change the editor itself didn't send a didChange for (spec §6): a
// disk-backed entry (not currently open in memory) is re-read and
// re-enqueued at Low priority; an open entry is left alone since the
// editor is the source of truth for it.
func (c *Core) WatchedFileChanged(ctx context.Context, uri, path string) {
	entry, err := c.store.Get(uri, false)
	if err != nil || entry == nil {
		return
	}
	if entry.Version(docstore.GetPart(uri)) >= 0 {
		return // open in memory; editor already sent (or will send) didChange
	}
	c.readDiskText(entry, path)
	c.pipeline.Enqueue(ctx, uri, queue.Low, true)
}

// LoadWorkspace runs the DirectoryLoader over rootDir, populating the
// store with disk-backed entries for every source file it finds (spec
// §4.8).
func (c *Core) LoadWorkspace(ctx context.Context, rootDir string) error {
	return c.loader.Load(ctx, rootDir)
}

// FileFound is the DirectoryLoader's FileFound callback (spec §4.8):
// it reads the file's text into the entry's document at the disk-backed
// sentinel version, so the analyzer can learn its declarations even
// though the file was never opened, then enqueues a parse unless the
// client declared python.manualFileLoad.
func (c *Core) FileFound(uri, path string) {
	entry, err := c.store.Get(uri, false)
	if err != nil || entry == nil {
		return
	}
	c.readDiskText(entry, path)
	if !c.manualFileLoad {
		c.pipeline.Enqueue(context.Background(), uri, queue.Low, true)
	}
}

func (c *Core) readDiskText(entry *docstore.Entry, path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warning("cannot read file", "path", path, "error", err)
		return
	}
	text := string(raw)
	doc := entry.EnsureDoc(c.newDoc)
	if err := doc.Reset(0, -1, &text); err != nil {
		log.Warning("disk load reset failed", "path", path, "error", err)
	}
}

// Shutdown implements the shutdown request (spec §5's cancellation
// model): clear the analyzer handle so in-flight and future work
// observes nil and returns, then stop the analysis queue.
func (c *Core) Shutdown() {
	c.analyzer.Clear()
	c.analysisQueue.Shutdown()
}

// onParseComplete is the pipeline's OnParseComplete subscriber (spec
// §4.5/§6): it registers the freshly parsed module with the analyzer
// (contract's AddModule, which needs the cookie a parse just produced),
// and on a module's first successful registration, computes and
// registers its alias set and re-enqueues every entry that already
// imports one of those aliases (spec §8's "Alias coherence" law).
func (c *Core) onParseComplete(uri string, _ int) {
	entry, err := c.store.Get(uri, false)
	if err != nil || entry == nil || !entry.Analyzable {
		return
	}
	cookie := entry.CurrentParse()
	if cookie == nil {
		return
	}

	c.mu.Lock()
	if c.lastParse[uri] == cookie.ID() {
		c.mu.Unlock()
		return
	}
	c.lastParse[uri] = cookie.ID()
	c.mu.Unlock()

	analyzer := c.analyzer.Load()
	if analyzer == nil {
		return
	}

	name := docstore.AliasFromPath(uriPath(uri))
	analysisEntry, err := analyzer.AddModule(context.Background(), name, uriPath(uri), uri, cookie)
	if err != nil {
		log.Warning("add module failed", "uri", uri, "error", err)
		return
	}
	entry.AnalysisEntry = analysisEntry

	if len(entry.ModuleNames) > 0 {
		return // already registered once; aliases don't change across re-parses
	}
	entry.ModuleNames = []string{name}

	for _, alias := range entry.AddAliases(name) {
		if alias != name {
			if err := analyzer.AddModuleAlias(alias, name); err != nil {
				log.Warning("add module alias failed", "alias", alias, "module", name, "error", err)
			}
		}
		for _, importer := range analyzer.EntriesImporting(alias, false) {
			c.pipeline.Enqueue(context.Background(), importer.URI(), queue.Low, true)
		}
	}
}

// uriPath strips a file:// scheme off uri, returning a filesystem path.
func uriPath(uri string) string {
	return strings.TrimPrefix(docstore.Base(uri), "file://")
}
