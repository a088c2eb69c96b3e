package errors

import "fmt"

// ErrorCode represents a Satchel error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrUnsupportedType  ErrorCode = "UNSUPPORTED_TYPE"  // 400
	ErrMalformedArchive ErrorCode = "MALFORMED_ARCHIVE" // 400
	ErrUnauthorized     ErrorCode = "UNAUTHORIZED"      // 401
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrCloneFailed      ErrorCode = "CLONE_FAILED"      // 422
	ErrIngestionFailed  ErrorCode = "INGESTION_FAILED"  // 422
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// SatchelError represents a structured error with code, status, and details.
type SatchelError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *SatchelError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *SatchelError {
	return &SatchelError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewUnsupportedType creates a 400 error for an operation that does not
// apply to the artifact's type or storage combination.
func NewUnsupportedType(msg string) *SatchelError {
	return &SatchelError{
		Code:    ErrUnsupportedType,
		Status:  400,
		Message: msg,
	}
}

// NewMalformedArchive creates a 400 error for an unreadable archive upload.
func NewMalformedArchive() *SatchelError {
	return &SatchelError{
		Code:    ErrMalformedArchive,
		Status:  400,
		Message: "malformed archive: not a valid zip file",
	}
}

// NewUnauthorized creates a 401 error for a missing or unrecognized
// credential.
func NewUnauthorized() *SatchelError {
	return &SatchelError{
		Code:    ErrUnauthorized,
		Status:  401,
		Message: "could not validate credentials",
	}
}

// NewNotFound creates a 404 error for a missing record.
// An ownership mismatch produces the same error as absence so that
// another user's artifact is indistinguishable from a nonexistent one.
func NewNotFound(kind, identifier string) *SatchelError {
	return &SatchelError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing file within an artifact.
func NewFileNotFound(path string) *SatchelError {
	return &SatchelError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewCloneFailed creates a 422 error carrying the VCS client's diagnostic.
func NewCloneFailed(detail string) *SatchelError {
	return &SatchelError{
		Code:    ErrCloneFailed,
		Status:  422,
		Message: fmt.Sprintf("failed to clone repository: %s", detail),
	}
}

// NewIngestionFailed creates a 422 error for an ingestion that was accepted
// but could not be completed, such as a repository with no matching files.
func NewIngestionFailed(detail string) *SatchelError {
	return &SatchelError{
		Code:    ErrIngestionFailed,
		Status:  422,
		Message: detail,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *SatchelError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &SatchelError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a SatchelError with the given code.
func Is(err error, code ErrorCode) bool {
	if sErr, ok := err.(*SatchelError); ok {
		return sErr.Code == code
	}
	return false
}
