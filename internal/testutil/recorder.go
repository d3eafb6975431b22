package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/relgraph/internal/ir"
)

// Registration is one association received by a RecordingRegistrar.
type Registration struct {
	Seq         int64 // 1-based arrival order
	Association ir.Association
}

// RecordingRegistrar records every association it is asked to register.
//
// Setting FailAlias makes Register reject associations with that alias,
// which exercises the parser's hook error path.
//
// Thread-safety: all methods are safe for concurrent use.
type RecordingRegistrar struct {
	FailAlias string

	mu      sync.Mutex
	seq     int64
	records []Registration
}

// Register implements compiler.Registrar.
func (r *RecordingRegistrar) Register(a ir.Association) error {
	if r.FailAlias != "" && a.Alias == r.FailAlias {
		return fmt.Errorf("registration of %q rejected", a.Alias)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.records = append(r.records, Registration{Seq: r.seq, Association: a})
	return nil
}

// Records returns a copy of the registrations in arrival order.
func (r *RecordingRegistrar) Records() []Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Registration, len(r.records))
	copy(out, r.records)
	return out
}

// Aliases returns the "Source.alias" of every registration in order.
func (r *RecordingRegistrar) Aliases() []string {
	recs := r.Records()
	out := make([]string, len(recs))
	for i, rec := range recs {
		out[i] = rec.Association.Source.Name + "." + rec.Association.Alias
	}
	return out
}

// Reset drops all registrations. The next Seq is 1 again.
func (r *RecordingRegistrar) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq = 0
	r.records = nil
}
