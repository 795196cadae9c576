// Package archive turns course submissions into files in a blob bucket.
//
// This package holds the naming policy, the version selector, the
// download pipeline, and the failure reporter. The pipeline lists
// assignments and submissions sequentially, expands them into
// self-contained download tasks, and drains the queue through a bounded
// worker pool.
//
// # Task Lifecycle
//
// Every task reaches exactly one terminal state:
//   - Written: bytes fetched and persisted under the computed key
//   - Skipped: extension excluded, or the attachment had no URL
//   - Failed: fetch or write error, captured as a FailureRecord
//
// Listing errors abort the run before any task is dispatched; task
// errors are recorded and the batch continues.
//
// # Storage
//
// All output goes through gocloud.dev/blob, so the archive root can be a
// local directory (file://), an S3 or GCS bucket, or an in-memory bucket
// in tests. Keys are derived by BuildFilename and are unique per distinct
// attachment, so concurrent workers never contend on a key.
package archive
