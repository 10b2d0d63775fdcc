// Package native implements the in-process object system the marshalling
// layer targets.
//
// This package contains:
//   - NaN-boxed word representation with a null sentinel
//   - Tracked heap storage (strings, arrays, out-cells) with
//     exactly-once release enforcement
//   - Classes, refcounted object instances, and signal declarations
//   - Signal emission with before/default/after handler ordering and
//     detail filtering
//   - Registered callable handles invoked through the native calling
//     convention
//
// Handlers run synchronously on whatever goroutine calls Emit; nothing in
// this package starts goroutines of its own.
package native
