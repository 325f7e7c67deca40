package snapsy

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicateHandle      = errors.New("username already taken")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrInvalidCredential    = errors.New("invalid username or password")
	ErrUnsupportedMediaType = errors.New("only images and videos are allowed")
	ErrPayloadTooLarge      = errors.New("file exceeds the maximum upload size")
	ErrNotOwner             = errors.New("post does not belong to user")
)

// ValidationError reports a missing or malformed required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}
