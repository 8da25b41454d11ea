package store

// Error is a persistence failure of a known kind. Callers match kinds with
// errors.Is against the sentinels below; the message is free text.
type Error struct {
	kind string
	msg  string
}

func (e *Error) Error() string { return e.msg }

// WithMessage returns an error of the same kind with another message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{kind: e.kind, msg: msg}
}

// Is matches any store error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.kind == e.kind
}

// Sentinel errors.
var (
	// ErrNotFound reports a missing row or record.
	ErrNotFound = &Error{kind: "not_found", msg: "resource not found"}
	// ErrAlreadyExists reports a unique constraint violation.
	ErrAlreadyExists = &Error{kind: "already_exists", msg: "resource already exists"}
	// ErrInvalidInput reports a reference to something that does not exist,
	// such as an unknown tag on a file.
	ErrInvalidInput = &Error{kind: "invalid_input", msg: "invalid input"}
)
