// Package core turns pilot logbook exports into flight records and imports
// them.
//
// This package has no UI or database dependencies. The web server and the
// logimport CLI both drive it through [Service], or call the pipeline pieces
// directly.
//
// # Pipeline
//
// A file moves through these stages:
//
//  1. [ReadRows] decodes CSV or XLSX into rows, tolerating BOMs, invalid
//     UTF-8 and ragged rows.
//  2. [DetectFormat] tells a bundled export (aircraft and flights sections
//     behind a fixed banner) from a generic CSV with a header row.
//  3. [SplitSections] separates the aircraft table from the flights table
//     of a bundled export; the aircraft rows feed an [AircraftIndex].
//  4. The [Normalizer] converts each row into a [FlightRecord] and the
//     validator attaches [ValidationIssue] entries. Generic files go through
//     a [FieldMapper] first.
//  5. The report builder summarises the rows into a [ParseReport].
//  6. The [ImportExecutor] writes accepted records through a [FlightStore],
//     retrying once without columns the store does not have.
//
// [Parser] runs stages 2 to 5, normalising chunks of rows on a worker pool.
//
// # Wizard
//
// [Service] keeps one session per uploaded file and walks it through the
// [Wizard] steps: upload, mapping (generic files only), preview, importing
// and complete. Commits are bounded server-wide by an [ImportLimiter].
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]. Each
// category carries a code for support reference:
//
//   - FMT: unrecognised or malformed files
//   - MAP: column mapping problems
//   - VAL: row validation
//   - IMP: import execution and concurrency
//   - DB: database errors
//   - FILE: size and encoding
//   - UPL: busy server, cancellation and timeouts
package core
