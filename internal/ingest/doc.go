// Package ingest accepts uploaded shop records into the price index.
//
// Service runs one upload end to end: validate the whole batch, label it,
// merge it into the stored index and commit batch and index together.
// Conflicting writers are retried by the index.Aggregator.
//
// Queue puts a single worker in front of a Service so uploads are applied
// one at a time, for deployments that prefer serialising writers to
// retrying them.
package ingest
