// Package aggregates defines domain-facing aggregate contracts.
//
// Contracts describe write boundaries where learner and statement invariants
// must hold atomically, without naming the persistence that enforces them.
package aggregates
