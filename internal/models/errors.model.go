package models

import "errors"

// Error taxonomy. Everything is resolved at the action that triggered it;
// nothing is retried automatically.
var (
	// ErrValidation: a field or record fails a declarative rule. Blocks
	// the submission, never fatal.
	ErrValidation = errors.New("validation failed")

	// ErrReferentialIntegrity: a delete is blocked by live references.
	// Soft retirement is the remedial path.
	ErrReferentialIntegrity = errors.New("referenced by other records")

	// ErrPersistence: the blob write failed. In-memory state is retained
	// as current, the caller is warned the change may be lost.
	ErrPersistence = errors.New("failed to persist")

	// ErrImportFormat: the imported document is unparseable or contains
	// no recognized collections. No partial import occurs.
	ErrImportFormat = errors.New("unrecognized import format")

	// ErrNotFound: the referenced entity is not in the store.
	ErrNotFound = errors.New("not found")
)
