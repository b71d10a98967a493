// Package database provides connection setup and schema migration for the
// SQL backends that hold the price index and raw upload batches.
//
// Postgres connects through a pgx pool. MySQL connections are described
// here as DSNs and opened by the storage package through gorm.
package database
