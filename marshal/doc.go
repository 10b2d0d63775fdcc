// Package marshal bridges Go handlers and native callables.
//
// The bridge has four parts. The classifier (plan) partitions a
// callable's arguments into prepare and writeback sequences and hides
// the machinery arguments a handler never sees. The converter moves
// single values across the boundary under the declared transfer rules,
// tracking which allocations the wrapper must retain. The builder
// registers an adapter that runs the handler between conversion
// passes, with release semantics chosen by the callable's scope. The
// connector attaches handlers to object signals resolved through
// namespace metadata.
//
// Callable shapes the classifier refuses are never half-built: Build
// registers a placeholder that panics with the refusal reason, and
// BuildAll records the refusal as a diagnostic while the rest of the
// batch proceeds.
package marshal
