package domain

// ErrorKind is the machine-readable code returned to callers on
// rejection.
type ErrorKind string

const (
	ErrMalformedRequest   ErrorKind = "MalformedRequest"
	ErrUnknownEventType   ErrorKind = "UnknownEventType"
	ErrMissingTag         ErrorKind = "MissingTag"
	ErrInvalidTagValue    ErrorKind = "InvalidTagValue"
	ErrMissingField       ErrorKind = "MissingField"
	ErrInvalidFieldType   ErrorKind = "InvalidFieldType"
	ErrFieldNotApplicable ErrorKind = "FieldNotApplicable"
	ErrQueueFull          ErrorKind = "QueueFull"
)

// ValidationError reports why an event was rejected. Field names the
// offending tag or field where one exists.
type ValidationError struct {
	Kind    ErrorKind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind) + ": " + e.Field + ": " + e.Message
}

func NewValidationError(kind ErrorKind, field, message string) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Message: message}
}
