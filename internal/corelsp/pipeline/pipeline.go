// Package pipeline implements the ParseAnalyzePipeline (spec §4.5): it
// throttles and submits parses, kicks off analysis, and gates diagnostic
// publication so stale results never overwrite fresher ones.
package pipeline

import (
	"context"
	"errors"
	"runtime"

	"github.com/tliron/commonlog"

	"glint/internal/corelsp/contract"
	"glint/internal/corelsp/docstore"
	"glint/internal/corelsp/publish"
	"glint/internal/corelsp/queue"
)

var log = commonlog.GetLogger("glint.pipeline")

// maxInFlightParses bounds concurrent parse intents per document, per
// spec §5 and invariant 2.
const maxInFlightParses = 3

// Callbacks lets callers observe the events spec §6 names, without
// letting subscribers mutate core state (design note: "subscribers
// cannot mutate core state").
type Callbacks struct {
	OnParseComplete    func(uri string, version int)
	OnAnalysisComplete func(uri string, version int)
}

// Pipeline wires ParseQueue, AnalysisQueue, DocumentStore, and a
// DiagnosticPublisher into the orchestration described in spec §4.5.
type Pipeline struct {
	store         *docstore.Store
	parseQueue    *queue.ParseQueue
	analysisQueue *queue.AnalysisQueue
	publisher     *publish.Publisher
	parser        contract.Parser
	analyzer      *contract.AnalyzerHandle
	callbacks     Callbacks
}

func New(
	store *docstore.Store,
	parseQueue *queue.ParseQueue,
	analysisQueue *queue.AnalysisQueue,
	publisher *publish.Publisher,
	parser contract.Parser,
	analyzer *contract.AnalyzerHandle,
	callbacks Callbacks,
) *Pipeline {
	return &Pipeline{
		store:         store,
		parseQueue:    parseQueue,
		analysisQueue: analysisQueue,
		publisher:     publisher,
		parser:        parser,
		analyzer:      analyzer,
		callbacks:     callbacks,
	}
}

// Enqueue schedules uri for (re)parse at priority, optionally followed by
// analysis. It is the pipeline's single public entry point (spec §4.5).
func (p *Pipeline) Enqueue(ctx context.Context, uri string, priority queue.Priority, analyze bool) {
	entry, err := p.store.Get(uri, true)
	if err != nil {
		log.Warning("enqueue for unknown document", "uri", uri)
		return
	}

	// Throttle: 3 in-flight parse intents for this document already and
	// the request is simply dropped — a later enqueue observes the
	// newest text (spec §4.5, §8 scenario 3, invariant 2).
	if entry.PendingParses.Value() >= maxInFlightParses {
		return
	}
	release := entry.PendingParses.Increment()

	go func() {
		defer release()
		p.parseAndAnalyze(ctx, uri, entry, priority, analyze)
	}()
}

func (p *Pipeline) parseAndAnalyze(ctx context.Context, uri string, entry *docstore.Entry, priority queue.Priority, analyze bool) {
	cookie, err := p.parseQueue.Submit(ctx, uri, func(ctx context.Context) (contract.ParseCookie, error) {
		return p.parser.Parse(ctx, entry.Doc, -1)
	})
	if err != nil {
		p.logParseError(uri, err)
		return
	}

	entry.SetCookie(cookie)

	parts := cookie.Parts()
	if len(parts) == 0 {
		p.callbacks.fireParseComplete(uri, 0)
	} else {
		for _, part := range parts {
			p.callbacks.fireParseComplete(uri, cookie.Version(part))
		}
	}

	if entry.Analyzable && analyze {
		p.analysisQueue.Enqueue(queue.Item{
			Priority: priority,
			Run: func(ctx context.Context) error {
				return p.runAnalysis(ctx, uri, entry, cookie)
			},
		}, priority)
	}

	p.publishGated(uri, entry, cookie)
}

func (p *Pipeline) runAnalysis(ctx context.Context, uri string, entry *docstore.Entry, cookie contract.ParseCookie) error {
	analyzer := p.analyzer.Load()
	if analyzer == nil {
		return nil // shut down; observe nil and return (spec §5 cancellation)
	}
	if entry.AnalysisEntry == nil {
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	parts := cookie.Parts()
	if len(parts) == 0 {
		p.callbacks.fireAnalysisComplete(uri, 0)
	} else {
		for _, part := range parts {
			p.callbacks.fireAnalysisComplete(uri, cookie.Version(part))
		}
	}

	p.publishGated(uri, entry, cookie)
	return nil
}

// publishGated implements spec §4.5's "Diagnostic gating": yield once to
// let the caller complete, fetch the best-known diagnostics, and publish
// per part through the monotonic Publisher.
func (p *Pipeline) publishGated(uri string, entry *docstore.Entry, cookie contract.ParseCookie) {
	runtime.Gosched()

	var diags []contract.Diagnostic
	if analyzer := p.analyzer.Load(); analyzer != nil && entry.AnalysisEntry != nil {
		diags = analyzer.GetDiagnostics(entry.AnalysisEntry)
	}

	parts := cookie.Parts()
	if len(parts) == 0 {
		parts = []int{0}
	}
	for _, part := range parts {
		p.publisher.Publish(uri, part, cookie.Version(part), diagnosticsForPart(diags, part))
	}
}

func diagnosticsForPart(diags []contract.Diagnostic, part int) []contract.Diagnostic {
	var out []contract.Diagnostic
	for _, d := range diags {
		if d.Part == part {
			out = append(out, d)
		}
	}
	return out
}

// logParseError implements the error-handling design of spec §4.5/§7:
// invalid source is dropped silently, cancellation is logged at Warning,
// anything else is logged at Error and never rethrown.
func (p *Pipeline) logParseError(uri string, err error) {
	if code, ok := contract.CodeOf(err); ok && code == contract.CodeBadSource {
		return
	}
	if errors.Is(err, context.Canceled) {
		log.Warning("parse cancelled", "uri", uri)
		return
	}
	log.Error("parse failed", "uri", uri, "error", err)
}

func (c Callbacks) fireParseComplete(uri string, version int) {
	if c.OnParseComplete != nil {
		c.OnParseComplete(uri, version)
	}
}

func (c Callbacks) fireAnalysisComplete(uri string, version int) {
	if c.OnAnalysisComplete != nil {
		c.OnAnalysisComplete(uri, version)
	}
}
