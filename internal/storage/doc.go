// Package storage implements index.BatchStore on SQL databases.
//
// Every backend keeps the index as one JSON document in a single row
// with a version counter, and raw uploads in a batches table. A save
// only lands when the caller's version still matches the row's:
//
//	UPDATE price_index SET version = version + 1, entries = ? WHERE id = 1 AND version = ?
//
// Zero rows affected means another writer got there first and the
// caller sees index.ErrVersionConflict. Commit runs the batch insert
// and the index update in one transaction.
package storage
