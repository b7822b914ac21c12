// Package codes defines the stable integer return-code ABI shared by every
// layer of trigen, from the pure-Go core up through the cgo export shim.
package codes

// Code is a stable integer return code. Fallible operations return one of
// these; predicate operations (is_*) return 0 or 1 only and never fail.
type Code int32

const (
	Success              Code = 0
	AlreadyTracked       Code = -1
	NotTracked           Code = -2
	CollectionInProgress Code = -3
	InvalidGeneration    Code = -4
	Internal             Code = -5
)

// String renders the code the way debug logs and CLI errors report it.
func (c Code) String() string {
	switch c {
	case Success:
		return "SUCCESS"
	case AlreadyTracked:
		return "ALREADY_TRACKED"
	case NotTracked:
		return "NOT_TRACKED"
	case CollectionInProgress:
		return "COLLECTION_IN_PROGRESS"
	case InvalidGeneration:
		return "INVALID_GENERATION"
	case Internal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// Err adapts a Code to the error interface for use in Go-native callers
// that prefer idiomatic error handling over raw integers. Success maps to
// a nil error.
func (c Code) Err() error {
	if c == Success {
		return nil
	}
	return codeError(c)
}

type codeError Code

func (e codeError) Error() string { return Code(e).String() }

// FromError recovers the Code embedded by Err, or Internal for any other
// non-nil error (the catch-all required by the unexpected-failure taxonomy).
func FromError(err error) Code {
	if err == nil {
		return Success
	}
	if ce, ok := err.(codeError); ok {
		return Code(ce)
	}
	return Internal
}
