package pipeline_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"glint/internal/corelsp/contract"
	"glint/internal/corelsp/docstore"
	"glint/internal/corelsp/pipeline"
	"glint/internal/corelsp/publish"
	"glint/internal/corelsp/queue"
)

type fakeDoc struct{}

func (fakeDoc) GetVersion(int) int                                         { return 1 }
func (fakeDoc) Reset(int, int, *string) error                              { return nil }
func (fakeDoc) Update(context.Context, int, int, int, []contract.Change) error { return nil }
func (fakeDoc) Parts() []int                                               { return []int{0} }
func (fakeDoc) IsClosed(int) bool                                          { return false }

type fakeCookie struct{ version int }

func (c fakeCookie) ID() string         { return "c" }
func (c fakeCookie) Parts() []int       { return []int{0} }
func (c fakeCookie) Version(int) int    { return c.version }

type countingParser struct {
	calls  int32
	gate   chan struct{} // optional: closed to let parses proceed
	delay  time.Duration
}

func (p *countingParser) Parse(ctx context.Context, doc contract.Document, part int) (contract.ParseCookie, error) {
	n := atomic.AddInt32(&p.calls, 1)
	if p.gate != nil {
		<-p.gate
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	return fakeCookie{version: int(n)}, nil
}

type nilSink struct{}

func (nilSink) Publish(string, int, int, []contract.Diagnostic) {}

func newPipeline(parser contract.Parser, cb pipeline.Callbacks) (*pipeline.Pipeline, *docstore.Store, *docstore.Entry) {
	store := docstore.NewStore()
	entry := docstore.NewEntry("file:///a", fakeDoc{}, false)
	store.GetOrAdd("file:///a", entry)

	analysisQueue := queue.NewAnalysisQueue()
	analysisQueue.Run(context.Background(), 2)

	pub := publish.New(nilSink{})
	handle := contract.NewAnalyzerHandle(nil)

	p := pipeline.New(store, queue.NewParseQueue(), analysisQueue, pub, parser, handle, cb)
	return p, store, entry
}

// Invariant 2 / scenario 3 (spec §8): enqueue 10 parses back to back for
// the same document; at most 3 are ever in flight at once.
func TestParseThrottle(t *testing.T) {
	gate := make(chan struct{})
	parser := &countingParser{gate: gate}
	p, _, entry := newPipeline(parser, pipeline.Callbacks{})

	for i := 0; i < 10; i++ {
		p.Enqueue(context.Background(), "file:///a", queue.Normal, false)
	}

	// Give goroutines a moment to reach the gate.
	time.Sleep(50 * time.Millisecond)

	if v := entry.PendingParses.Value(); v > 3 {
		t.Fatalf("expected at most 3 in-flight parses, got %d", v)
	}

	close(gate)
}

func TestParseCompleteFires(t *testing.T) {
	var mu sync.Mutex
	var gotURI string
	var gotVersion int
	done := make(chan struct{}, 1)

	cb := pipeline.Callbacks{
		OnParseComplete: func(uri string, version int) {
			mu.Lock()
			gotURI, gotVersion = uri, version
			mu.Unlock()
			select {
			case done <- struct{}{}:
			default:
			}
		},
	}

	parser := &countingParser{}
	p, _, _ := newPipeline(parser, cb)

	p.Enqueue(context.Background(), "file:///a", queue.Normal, false)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ParseComplete")
	}

	mu.Lock()
	defer mu.Unlock()
	if gotURI != "file:///a" {
		t.Fatalf("expected uri file:///a, got %s", gotURI)
	}
	if gotVersion != 1 {
		t.Fatalf("expected version 1, got %d", gotVersion)
	}
}

func TestEnqueueUnknownDocumentIsNoop(t *testing.T) {
	parser := &countingParser{}
	p, _, _ := newPipeline(parser, pipeline.Callbacks{})

	p.Enqueue(context.Background(), "file:///missing", queue.Normal, false)
	time.Sleep(20 * time.Millisecond)

	if atomic.LoadInt32(&parser.calls) != 0 {
		t.Fatalf("expected no parse for an unknown document")
	}
}
