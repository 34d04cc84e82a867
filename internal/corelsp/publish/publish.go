// Package publish implements the DiagnosticPublisher: a monotonic
// version-guarded sink (spec §4.6) that also owns the Reported
// Diagnostics table used to enforce invariant 4 — once version V is
// published for (URI, part), no version V' < V is ever published.
package publish

import (
	"glint/internal/corelsp/contract"
	"glint/internal/corelsp/lockutil"
)

// Sink is the pure delivery target — typically the glsp transport layer
// calling context.Notify("textDocument/publishDiagnostics", ...). Sink
// implementations must not retry or coalesce; this package does neither
// either, it only drops stale versions.
type Sink interface {
	Publish(uri string, part, version int, diagnostics []contract.Diagnostic)
}

type reportedRecord struct {
	version int
}

// Publisher gates publishes per (URI, part) behind the last-published
// version, dropping anything stale.
type Publisher struct {
	sink Sink

	mu       lockutil.Mutex
	reported map[string]map[int]reportedRecord // uri -> part -> record
}

func New(sink Sink) *Publisher {
	return &Publisher{
		sink:     sink,
		reported: make(map[string]map[int]reportedRecord),
	}
}

// Publish delivers diagnostics for (uri, part, version) unless a version
// >= version has already been published for that (uri, part).
func (p *Publisher) Publish(uri string, part, version int, diagnostics []contract.Diagnostic) {
	p.mu.Lock()
	parts, ok := p.reported[uri]
	if !ok {
		parts = make(map[int]reportedRecord)
		p.reported[uri] = parts
	}
	rec, has := parts[part]
	if has && rec.version >= version {
		p.mu.Unlock()
		return
	}
	parts[part] = reportedRecord{version: version}
	p.mu.Unlock()

	p.sink.Publish(uri, part, version, diagnostics)
}

// Forget removes the reported-diagnostics record for uri, used when a
// document is removed from the store (Core.Delete); didClose keeps it.
func (p *Publisher) Forget(uri string) {
	p.mu.Lock()
	delete(p.reported, uri)
	p.mu.Unlock()
}

// LastPublished returns the last version published for (uri, part), and
// whether any publish has happened at all. Exposed for tests.
func (p *Publisher) LastPublished(uri string, part int) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	parts, ok := p.reported[uri]
	if !ok {
		return 0, false
	}
	rec, ok := parts[part]
	return rec.version, ok
}
