// Package errors provides standardized error handling patterns for GOnSales components.
//
// # Overview
//
// The errors package implements a three-class error classification system for
// the data layer: Transient (temporary, retryable), Invalid (bad input,
// non-retryable), and Fatal (unrecoverable, stop processing).
//
// The split maps directly onto how the data layer degrades. Storage quota and
// serialization failures are transient: the cache and persistence layers catch
// them, log them, and carry on, because the in-memory record lists remain the
// source of truth. Validation, duplicate-id, and not-found failures are
// invalid: they are returned synchronously to the caller, which re-prompts or
// fixes its logic. Configuration failures are fatal.
//
// The classification system integrates with Go's standard error handling,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if _, exists := s.byID[id]; exists {
//	    return errors.ErrDuplicateID
//	}
//
// Wrap errors with context for debugging:
//
//	if err := json.Marshal(records); err != nil {
//	    return errors.WrapTransient(err, "Syncer", "SaveAll", "encode records")
//	}
//
// Check classification for degradation logic:
//
//	if errors.IsTransient(err) {
//	    logger.Warn("cache write skipped", "error", err)
//	    return nil // cache is an optimization, not required for correctness
//	}
package errors
