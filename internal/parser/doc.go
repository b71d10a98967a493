// Package parser turns raw game client logs into shop records.
//
// Pipeline:
//   - Clean keeps chat lines carrying the log marker and strips the prefix.
//   - Parser is a two-state machine (idle / building) fed one cleaned line
//     at a time; each "Owner:" line opens a new record.
//
// Parsing never fails. Malformed numbers become invalid Amounts and field
// lines seen before any "Owner:" line are set aside as orphans; judging the
// result is left to package validate.
package parser
