package core

import "errors"

// Common errors.
var (
	// ErrCorruptDocument reports a config or profile file that exists but cannot be parsed.
	ErrCorruptDocument = errors.New("corrupt document")
	// ErrSchemaMismatch reports a document whose top-level categories differ from the schema.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrMissingKey reports a key absent from a document; the default value is used instead.
	ErrMissingKey = errors.New("missing key")
	// ErrSchemaCorruption reports a key absent from the default schema itself.
	ErrSchemaCorruption = errors.New("schema corruption")
	// ErrUnknownCategory reports a set on a category the schema does not know.
	ErrUnknownCategory = errors.New("unknown category")

	ErrFileSystem        = errors.New("filesystem error")
	ErrNotFound          = errors.New("not found")
	ErrNameConflict      = errors.New("name already in use")
	ErrNoteRemoved       = errors.New("note has been removed")
	ErrUnknownAction     = errors.New("unknown action")
	ErrRemoteUnreachable = errors.New("remote session unreachable")
	ErrNetworkFetch      = errors.New("network fetch failed")
)
