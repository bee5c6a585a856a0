package errors

import "fmt"

// ErrorCode represents a tabshelf error code.
type ErrorCode string

const (
	ErrInvalidRequest          ErrorCode = "INVALID_REQUEST"          // 400
	ErrNotFound                ErrorCode = "NOT_FOUND"                // 404
	ErrFileNotFound            ErrorCode = "FILE_NOT_FOUND"           // 404
	ErrDuplicate               ErrorCode = "DUPLICATE"                // 409
	ErrValidationRejected      ErrorCode = "VALIDATION_REJECTED"      // 422
	ErrInternal                ErrorCode = "INTERNAL"                 // 500
	ErrCollaboratorUnavailable ErrorCode = "COLLABORATOR_UNAVAILABLE" // 502
	ErrPersistenceFailed       ErrorCode = "PERSISTENCE_FAILED"       // 503
)

// ShelfError represents a structured error with code, status, and details.
type ShelfError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *ShelfError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *ShelfError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for malformed request parameters.
func NewInvalidRequest(msg string) *ShelfError {
	return &ShelfError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a collection or tab that does not exist.
// kind is "collection" or "tab".
func NewNotFound(kind, identifier string) *ShelfError {
	return &ShelfError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *ShelfError {
	return &ShelfError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewDuplicate creates a 409 error when a url is already in the target collection.
func NewDuplicate(collectionID, url string) *ShelfError {
	return &ShelfError{
		Code:    ErrDuplicate,
		Status:  409,
		Message: fmt.Sprintf("tab already exists in collection: %s", url),
		Details: map[string]any{"collection_id": collectionID, "url": url},
	}
}

// NewValidationRejected creates a 422 error for input the store refuses.
func NewValidationRejected(msg string) *ShelfError {
	return &ShelfError{
		Code:    ErrValidationRejected,
		Status:  422,
		Message: msg,
	}
}

// NewCollaboratorUnavailable creates a 502 error when the browser bridge fails.
func NewCollaboratorUnavailable(err error) *ShelfError {
	msg := "tab collaborator unavailable"
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &ShelfError{
		Code:    ErrCollaboratorUnavailable,
		Status:  502,
		Message: msg,
		cause:   err,
	}
}

// NewPersistenceFailed creates a 503 error when the document write fails.
func NewPersistenceFailed(err error) *ShelfError {
	msg := "failed to persist collections"
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &ShelfError{
		Code:    ErrPersistenceFailed,
		Status:  503,
		Message: msg,
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *ShelfError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ShelfError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is a ShelfError with the given code.
func Is(err error, code ErrorCode) bool {
	if sErr, ok := As(err); ok {
		return sErr.Code == code
	}
	return false
}

// As unwraps err until it finds a ShelfError.
func As(err error) (*ShelfError, bool) {
	for err != nil {
		if sErr, ok := err.(*ShelfError); ok {
			return sErr, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
