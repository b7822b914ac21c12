package core

import "errors"

// errNotInitialized is returned by every operation other than Init once the
// core is absent, whether because it was never constructed or because
// Cleanup tore it down. This is the error the ABI layer maps to INTERNAL
// per spec.md §5's "Shared resources" rule.
var errNotInitialized = errors.New("core: not initialized")

// IsNotInitialized reports whether err is the not-initialized precondition
// failure.
func IsNotInitialized(err error) bool { return errors.Is(err, errNotInitialized) }
