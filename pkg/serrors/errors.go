package serrors

import "fmt"

// Base is a coded error. Code is a stable machine-readable identifier the
// transport layer maps to a status; Message is safe to show to an operator.
type Base struct {
	Code    string
	Message string
	Hint    string
}

func NewError(code, message, hint string) *Base {
	return &Base{Code: code, Message: message, Hint: hint}
}

func (e *Base) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithHint returns a copy of the error carrying request-specific detail.
// The original stays untouched so sentinel comparisons via errors.Is keep
// working against the package-level value.
func (e *Base) WithHint(format string, args ...any) *Base {
	return &Base{
		Code:    e.Code,
		Message: e.Message,
		Hint:    fmt.Sprintf(format, args...),
	}
}

// Is matches any Base with the same code, so wrapped copies produced by
// WithHint still satisfy errors.Is against the sentinel.
func (e *Base) Is(target error) bool {
	t, ok := target.(*Base)
	return ok && t.Code == e.Code
}
