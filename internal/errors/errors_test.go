package errors

import (
	"fmt"
	"testing"
)

func TestShelfError_Error(t *testing.T) {
	err := &ShelfError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "collection not found: abc",
	}

	expected := "NOT_FOUND: collection not found: abc"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("id is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "id is required" {
		t.Errorf("Message = %q, want %q", err.Message, "id is required")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("collection", "01HX")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["identifier"] != "01HX" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "01HX")
	}
	if err.Details["kind"] != "collection" {
		t.Errorf("Details[kind] = %v, want %q", err.Details["kind"], "collection")
	}
}

func TestNewDuplicate(t *testing.T) {
	err := NewDuplicate("c1", "https://example.com")

	if err.Code != ErrDuplicate {
		t.Errorf("Code = %q, want %q", err.Code, ErrDuplicate)
	}
	if err.Status != 409 {
		t.Errorf("Status = %d, want 409", err.Status)
	}
	if err.Details["url"] != "https://example.com" {
		t.Errorf("Details[url] = %v", err.Details["url"])
	}
}

func TestNewValidationRejected(t *testing.T) {
	err := NewValidationRejected("name is required")

	if err.Code != ErrValidationRejected {
		t.Errorf("Code = %q, want %q", err.Code, ErrValidationRejected)
	}
	if err.Status != 422 {
		t.Errorf("Status = %d, want 422", err.Status)
	}
}

func TestNewPersistenceFailed_Unwraps(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewPersistenceFailed(cause)

	if err.Status != 503 {
		t.Errorf("Status = %d, want 503", err.Status)
	}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
}

func TestNewCollaboratorUnavailable(t *testing.T) {
	err := NewCollaboratorUnavailable(nil)

	if err.Code != ErrCollaboratorUnavailable {
		t.Errorf("Code = %q, want %q", err.Code, ErrCollaboratorUnavailable)
	}
	if err.Message != "tab collaborator unavailable" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewInternal(t *testing.T) {
	err := NewInternal(fmt.Errorf("boom"))
	if err.Message != "boom" {
		t.Errorf("Message = %q, want %q", err.Message, "boom")
	}

	err = NewInternal(nil)
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	err := NewNotFound("tab", "https://a")

	if !Is(err, ErrNotFound) {
		t.Error("Is() = false, want true for matching code")
	}
	if Is(err, ErrDuplicate) {
		t.Error("Is() = true, want false for different code")
	}
	if Is(fmt.Errorf("plain"), ErrNotFound) {
		t.Error("Is() = true, want false for non-ShelfError")
	}
	if Is(nil, ErrNotFound) {
		t.Error("Is() = true, want false for nil")
	}
}

func TestIs_Wrapped(t *testing.T) {
	err := fmt.Errorf("drop: %w", NewDuplicate("c1", "https://a"))

	if !Is(err, ErrDuplicate) {
		t.Error("Is() = false, want true through fmt.Errorf wrap")
	}
}
