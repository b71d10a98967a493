// Package watch re-runs a callback when a log file changes.
//
// The file's directory is watched rather than the file itself so that a
// client rotating latest.log (rename, then create) keeps being followed.
// Bursts of writes are collapsed into one call once the file has been quiet
// for the debounce interval.
package watch
