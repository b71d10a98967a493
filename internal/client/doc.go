// Package client talks to an indexer's HTTP API.
//
// It is used by the shoplog CLI to upload parsed records and to read the
// published price index. Requests that fail with a retryable status are
// retried with jittered exponential backoff.
package client
