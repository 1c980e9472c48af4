// Package operator defines the contract every DataMate operator implements.
//
// An operator is a data transformation unit: it receives one Sample and
// produces an ExecutionResult that is either a transformed artifact or a
// failure descriptor. Anticipated, data-dependent problems (malformed
// input, unmet preconditions) come back inside the Result so callers can
// inspect them; only unanticipated internal faults are returned as errors.
//
// Operators are constructed by a Factory from validated parameter
// bindings. A factory that cannot construct its operator must release
// anything it acquired before returning the error. Unless an operator
// explicitly declares otherwise through the capability interfaces below,
// each instance is owned by a single caller and a fresh instance is
// constructed per run.
package operator

import (
	"context"

	"github.com/JasonW404-HW/DataMate-Ops/pkg/metadata"
)

// Mapper transforms one sample at a time.
//
// Execute returns the outcome for the given sample. A non-nil error means
// the operator hit an unanticipated internal fault and the run must stop;
// every failure the operator can anticipate belongs in the Result instead.
// Implementations must not retain sample beyond the call.
type Mapper interface {
	Execute(ctx context.Context, sample *Sample) (*Result, error)
}

// Factory constructs an operator instance from validated bindings.
// Construction-time problems that a schema cannot express (for example an
// expression that does not compile) should be reported as a
// *metadata.ValidationError naming the parameter.
type Factory func(params *metadata.Bindings) (Mapper, error)

// BatchCapable is implemented by operators whose instances may be reused
// across samples within one batch. Operators that keep per-execute state
// must not implement it.
type BatchCapable interface {
	BatchSafe() bool
}

// ConcurrencyCapable is implemented by operators whose instances tolerate
// concurrent Execute calls. The harness only parallelizes a batch when
// the operator declares this.
type ConcurrencyCapable interface {
	ConcurrencySafe() bool
}

// Closer is implemented by operators that acquire resources at
// construction. The harness calls Close exactly once when it is done
// with an instance, whether execution succeeded or not.
type Closer interface {
	Close() error
}

// IsBatchSafe reports whether the operator declared batch reuse.
func IsBatchSafe(m Mapper) bool {
	if c, ok := m.(BatchCapable); ok {
		return c.BatchSafe()
	}
	return false
}

// IsConcurrencySafe reports whether the operator declared tolerance for
// concurrent Execute calls.
func IsConcurrencySafe(m Mapper) bool {
	if c, ok := m.(ConcurrencyCapable); ok {
		return c.ConcurrencySafe()
	}
	return false
}

// Close releases the operator if it implements Closer.
func Close(m Mapper) error {
	if c, ok := m.(Closer); ok {
		return c.Close()
	}
	return nil
}
