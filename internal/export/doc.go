// Package export renders shop records for download.
//
// Two shapes:
//   - Structured: the records as parsed, written as indented JSON.
//   - Flattened: one Row per record with optional fields as null, written
//     as CSV or as an XLSX workbook.
//
// Enchants keep their encounter order here; only index keys sort them.
package export
