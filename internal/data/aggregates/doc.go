// Package aggregates contains infrastructure implementations of domain aggregate contracts.
//
// Implementations compose the table-level repos from internal/data/repos and own
// the transaction boundary of every invariant-critical write: statement ingestion
// and manual learner edits.
package aggregates
