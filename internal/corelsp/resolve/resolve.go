// Package resolve implements the RequestResolver (spec §4.7): the
// synchronous read side (completion, signature help, references, hover,
// workspace symbols), each served against a consistent snapshot of the
// target document's most recent parse.
package resolve

import (
	"context"
	"time"

	"glint/internal/corelsp/contract"
	"glint/internal/corelsp/docstore"
)

// Resolver serves every read request against DocumentStore + Analyzer
// snapshots; no transport-shaped type appears below this package.
type Resolver struct {
	store    *docstore.Store
	analyzer *contract.AnalyzerHandle
}

func New(store *docstore.Store, analyzer *contract.AnalyzerHandle) *Resolver {
	return &Resolver{store: store, analyzer: analyzer}
}

// snapshot implements the common preamble spec §4.7 describes: resolve
// the entry, wait for its current parse (bounded by timeout; negative
// means indefinite, per the resolved Open Question), and check the
// expected version if the caller supplied one.
func (r *Resolver) snapshot(ctx context.Context, uri string, expectedVersion *int, timeout time.Duration) (*docstore.Entry, contract.ParseCookie, error) {
	entry, err := r.store.Get(uri, true)
	if err != nil {
		return nil, nil, err
	}
	if !entry.Analyzable {
		return nil, nil, contract.ErrUnsupportedDocumentType(uri)
	}

	cookie := entry.WaitForParse(ctx, timeout)
	if cookie == nil {
		return entry, nil, nil
	}

	if expectedVersion != nil {
		part := docstore.GetPart(uri)
		if actual := cookie.Version(part); actual != *expectedVersion {
			return nil, nil, contract.ErrMismatchedVersion(*expectedVersion, actual)
		}
	}

	return entry, cookie, nil
}

func treeOf(cookie contract.ParseCookie) contract.Tree {
	if cookie == nil {
		return nil
	}
	tc, ok := cookie.(contract.TreeCookie)
	if !ok {
		return nil
	}
	return tc.Tree()
}
