package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrValidation covers malformed input: bad attachment format/size, empty or oversized text.
	ErrValidation = errors.New("validation error")
	// ErrDataIntegrity indicates corrupted persisted state, e.g. a cycle in a reply chain.
	// Creation of such a comment should have been prevented, so hitting this is a prior bug.
	ErrDataIntegrity = errors.New("data integrity error")
	// ErrNotificationDelivery covers realtime publish or job enqueue failures. These are
	// logged only and never surfaced to the comment-creation caller.
	ErrNotificationDelivery = errors.New("notification delivery error")
	// ErrEmailDelivery marks transient send failures, retried by the email worker.
	ErrEmailDelivery = errors.New("email delivery error")
)

// AppError wraps a sentinel error with a human-readable message.
type AppError struct {
	Err     error
	Message string
	Field   string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %v", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func DataIntegrity(message string) *AppError {
	return &AppError{
		Err:     ErrDataIntegrity,
		Message: message,
	}
}

func NotificationDelivery(stage string, cause error) *AppError {
	return &AppError{
		Err:     ErrNotificationDelivery,
		Message: fmt.Sprintf("%s failed: %v", stage, cause),
	}
}

func EmailDelivery(recipient string, cause error) *AppError {
	return &AppError{
		Err:     ErrEmailDelivery,
		Message: fmt.Sprintf("email to %s failed: %v", recipient, cause),
	}
}
