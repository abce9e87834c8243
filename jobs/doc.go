// Package jobs tracks asynchronous server-side import and export jobs and
// keeps a local mirror of their state.
//
// The mirror only changes when the caller asks: submit, list, refresh,
// delete. There is no background polling loop; a job that completes on the
// server looks unchanged here until the next explicit refresh. Interleaved
// responses cannot corrupt the mirror: every request is stamped with a
// sequence number at issue time, and a slow response loses against anything
// written by a later-issued request. Status only moves forward through
// queued, processing, and one terminal state, and a terminal job is frozen.
//
// # Architecture boundaries
//
//   - All network traffic goes through the gateway package, which owns
//     failure classification. A rejected submission is a gateway error, not
//     a job in the failed state.
//   - Artifact filename and size are server metadata carried on the job;
//     this package never derives them.
//
// # What this package must NOT do
//
//   - Poll in the background or start goroutines that outlive a call.
//   - Delete a job the server is still processing.
package jobs
