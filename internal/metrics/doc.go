// Package metrics provides lock-free counters and a request-latency histogram
// for auditkit observability.
//
// # Design
//
// Counters are stored in cache-line-padded uint64 slots and incremented
// atomically via [sync/atomic.AddUint64]. The latency histogram uses 8 fixed
// buckets (≤5ms … +Inf). Both are allocation-free on the write path.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import auditkit or any sibling package.
//   - Expose global metric registries.
package metrics
