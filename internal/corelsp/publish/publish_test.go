package publish_test

import (
	"testing"

	"glint/internal/corelsp/contract"
	"glint/internal/corelsp/publish"
)

type recordingSink struct {
	calls []call
}

type call struct {
	uri     string
	part    int
	version int
}

func (s *recordingSink) Publish(uri string, part, version int, _ []contract.Diagnostic) {
	s.calls = append(s.calls, call{uri, part, version})
}

// Scenario 4 from spec §8: publish v5, then a stale v4 retry is suppressed.
func TestDiagnosticMonotonicity(t *testing.T) {
	sink := &recordingSink{}
	p := publish.New(sink)

	p.Publish("file:///a", 0, 5, nil)
	p.Publish("file:///a", 0, 4, nil)

	if len(sink.calls) != 1 {
		t.Fatalf("expected only the v5 publish to reach the sink, got %v", sink.calls)
	}
	if sink.calls[0].version != 5 {
		t.Fatalf("expected published version 5, got %d", sink.calls[0].version)
	}

	last, ok := p.LastPublished("file:///a", 0)
	if !ok || last != 5 {
		t.Fatalf("expected LastPublished to report 5, got (%d, %v)", last, ok)
	}
}

func TestDiagnosticPublishPerPartIndependent(t *testing.T) {
	sink := &recordingSink{}
	p := publish.New(sink)

	p.Publish("file:///n.ipynb", 0, 1, nil)
	p.Publish("file:///n.ipynb", 1, 1, nil)
	p.Publish("file:///n.ipynb", 0, 0, nil) // stale for part 0

	if len(sink.calls) != 2 {
		t.Fatalf("expected 2 publishes (one per part), got %v", sink.calls)
	}
}

func TestForgetClearsRecord(t *testing.T) {
	sink := &recordingSink{}
	p := publish.New(sink)
	p.Publish("file:///a", 0, 5, nil)
	p.Forget("file:///a")

	if _, ok := p.LastPublished("file:///a", 0); ok {
		t.Fatalf("expected record to be cleared after Forget")
	}

	// After forgetting, even a version previously superseded republishes.
	p.Publish("file:///a", 0, 1, nil)
	if len(sink.calls) != 2 {
		t.Fatalf("expected republish after Forget, got %v", sink.calls)
	}
}
