// Package lockutil supplies the coarse mutex type used by the core's
// coarse locks (pending-changes list, reported-diagnostics map, the
// per-URI entry lock, Core's parse dedup map, and the analysis queue's
// buckets): a deadlock-detecting mutex instead of sync.Mutex. The
// core takes and releases several of these in sequence per request
// (docstore entry -> reconcile pending list -> publish reported map), so
// a silent lock-order inversion is a real risk; go-deadlock logs a stack
// dump instead of hanging the server.
package lockutil

import "github.com/sasha-s/go-deadlock"

// Mutex is a drop-in replacement for sync.Mutex used by every coarse
// lock the core takes.
type Mutex = deadlock.Mutex

// RWMutex is a drop-in replacement for sync.RWMutex.
type RWMutex = deadlock.RWMutex
