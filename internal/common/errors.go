package common

import "errors"

// Error kinds. Match them with errors.Is; the user-facing text is the
// message carried by *Error.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrAuth       = errors.New("authentication error")
	ErrNotFound   = errors.New("not found")
	ErrNetwork    = errors.New("network error")
)

// Error is a classified failure with a message meant to be shown as is.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" && e.Kind != nil {
		return e.Kind.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Kind }

func Validation(msg string) error { return &Error{Kind: ErrValidation, Msg: msg} }
func Conflict(msg string) error   { return &Error{Kind: ErrConflict, Msg: msg} }
func Auth(msg string) error       { return &Error{Kind: ErrAuth, Msg: msg} }
func NotFound(msg string) error   { return &Error{Kind: ErrNotFound, Msg: msg} }
func Network(msg string) error    { return &Error{Kind: ErrNetwork, Msg: msg} }

// Surface returns err unchanged when it already carries a classified
// message, otherwise an error of the given kind with fallback as text.
// Remote calls use it so that service messages reach the user and
// anonymous transport failures get a generic one.
func Surface(err error, kind error, fallback string) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) && ce.Msg != "" {
		return ce
	}
	return &Error{Kind: kind, Msg: fallback}
}
