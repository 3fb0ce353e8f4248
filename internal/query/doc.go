// Package query defines the search model for the reaction database.
//
// A request carries exactly one Query. Query is a sealed interface: only the
// variant types in this package implement it, so backends can switch over the
// closed set without an open-ended extension point.
//
//	Query                   WHERE shape
//	-----                   -----------
//	DatasetIDQuery          dataset.dataset_id IN (...)
//	ReactionIDQuery         reaction.reaction_id IN (...)
//	DOIQuery                reaction.doi IN (...)
//	ReactionSmartsQuery     whole-reaction pattern match
//	ReactionComponentQuery  conjunction of component predicates
//	RandomSampleQuery       none (random sample bounded by n)
//
// Every variant is validated by its constructor and is immutable afterwards.
// Compilation to SQL lives in package querysql; execution in package engine.
//
// # Predicates
//
// A Predicate matches one reaction component: a pattern string, the role it
// targets (input or output) and the matching mode (exact, substructure,
// similarity, smarts). ReactionComponentQuery requires that every predicate
// holds. There is no OR and no negation.
//
// # Errors
//
// Validation failures are *Error values with ErrCodeValidation. They are
// raised before any I/O and are always fixable by the caller. Store-side
// failures use the same type with ErrCodeExecution, while an unreachable
// store is reported as *UnavailableError so callers can retry it.
package query
