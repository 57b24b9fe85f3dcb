package cli

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	// Workspace errors
	ErrWorkspaceNotFound     = "WORKSPACE_NOT_FOUND"
	ErrWorkspaceNotSpecified = "WORKSPACE_NOT_SPECIFIED"
	ErrConfigInvalid         = "CONFIG_INVALID"

	// Note errors
	ErrNoteNotFound         = "NOTE_NOT_FOUND"
	ErrFileNotFound         = "FILE_NOT_FOUND"
	ErrFileReadError        = "FILE_READ_ERROR"
	ErrFileWriteError       = "FILE_WRITE_ERROR"
	ErrFileOutsideWorkspace = "FILE_OUTSIDE_WORKSPACE"

	// Index errors
	ErrDatabaseError = "DATABASE_ERROR"
	ErrIndexLocked   = "INDEX_LOCKED"

	// Completion errors
	ErrSourceFailed = "CANDIDATE_SOURCE_FAILED"

	// Input errors
	ErrInvalidInput = "INVALID_INPUT"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnIndexUpdateFailed = "INDEX_UPDATE_FAILED"
	WarnNoteSkipped       = "NOTE_SKIPPED"
)
