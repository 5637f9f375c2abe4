// Package ingest runs the bulk load: it decodes address documents, checks
// each key against storage, inserts new rows and removes their source
// files.
//
// A run is split into batches of BatchSize paths. Each batch is processed
// by at most Workers concurrent units; the next batch starts only after
// every unit of the current one has returned. Units never fail the run:
// they report an outcome that the pipeline merges into the run state once
// the batch is complete, and progress and rate events are emitted at that
// point.
//
// Cancellation is honoured between batches only.
package ingest
