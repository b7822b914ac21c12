package registry

import "errors"

// Sentinel errors the core layer translates to the stable ABI return codes.
// Kept distinct from codes.Code so this package has no dependency on the
// ABI layer — it only needs to be distinguishable by identity.
var (
	errNullAddress    = errors.New("registry: null address")
	errAlreadyTracked = errors.New("registry: already tracked")
	errNotTracked     = errors.New("registry: not tracked")
)

// IsNullAddress reports whether err is the null-address precondition
// violation.
func IsNullAddress(err error) bool { return errors.Is(err, errNullAddress) }

// IsAlreadyTracked reports whether err is the duplicate-insertion conflict.
func IsAlreadyTracked(err error) bool { return errors.Is(err, errAlreadyTracked) }

// IsNotTracked reports whether err is the missing-entry conflict.
func IsNotTracked(err error) bool { return errors.Is(err, errNotTracked) }
