package formula

// ErrorSentinel is the user-visible value stored for a failed market
// ticker lookup. All other evaluation failures surface as an absent
// value, never as a sentinel.
const ErrorSentinel = "#ERROR!"

// ErrorCode classifies evaluation failures. Failures never escape
// Evaluate as Go errors; they collapse into the absent result. The
// codes exist so internal call sites can distinguish causes.
type ErrorCode uint8

const (
	ErrParse  ErrorCode = 1 // malformed formula text
	ErrRef    ErrorCode = 2 // invalid cell or range reference
	ErrValue  ErrorCode = 3 // wrong type of operand for an operation
	ErrName   ErrorCode = 4 // unrecognized function name
	ErrDiv0   ErrorCode = 5 // division by zero
	ErrLookup ErrorCode = 6 // external lookup failure
)

// Error preserves the failure code for internal dispatch
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func errValue(message string) *Error {
	return &Error{Code: ErrValue, Message: message}
}
