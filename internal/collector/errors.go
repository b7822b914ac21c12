package collector

import "errors"

var (
	// errInProgress is returned by CollectGeneration when another cycle is
	// already running; the collection lock is acquired non-blockingly.
	errInProgress = errors.New("collector: collection in progress")

	errNullAddress       = errors.New("collector: null address")
	errNotTrackedForFlag = errors.New("collector: address not tracked")
)

// IsNullAddress reports whether err is the null-address precondition
// violation from the uncollectable-flag API.
func IsNullAddress(err error) bool { return errors.Is(err, errNullAddress) }

// IsNotTracked reports whether err is the not-tracked conflict from the
// uncollectable-flag API.
func IsNotTracked(err error) bool { return errors.Is(err, errNotTrackedForFlag) }

// IsInProgress reports whether err is the contention error returned when a
// cycle is already running.
func IsInProgress(err error) bool { return errors.Is(err, errInProgress) }
