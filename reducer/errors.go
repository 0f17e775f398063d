package reducer

import (
	"errors"
	"fmt"
)

// Precondition failures.
//
// They are detected from information every rank has, so
// every rank of a group fails with the same error before
// any communication happens.
var (
	ErrInvalidArgumentCount = errors.New("invalid argument count")
	ErrInvalidPartitioning  = errors.New("invalid partitioning")
	ErrUnsupportedTopology  = errors.New("unsupported topology")
	ErrGroupMismatch        = errors.New("group size mismatch")
)

// IsPrecondition reports whether err is (or wraps) one of
// the precondition failures.
func IsPrecondition(err error) bool {
	for _, target := range []error{ErrInvalidArgumentCount, ErrInvalidPartitioning,
		ErrUnsupportedTopology, ErrGroupMismatch} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// CheckArgumentCount fails unless exactly want arguments
// were supplied.
func CheckArgumentCount(args []string, want int) error {
	if len(args) != want {
		return fmt.Errorf("%w: expected %d but got %d", ErrInvalidArgumentCount, want, len(args))
	}
	return nil
}

// CheckPartitioning fails unless n values can be split
// evenly across the participants.
func CheckPartitioning(n, participants int) error {
	if participants < 1 {
		return fmt.Errorf("%w: %d participants", ErrInvalidPartitioning, participants)
	}
	if n%participants != 0 {
		return fmt.Errorf("%w: %d values are not evenly divisible by %d participants",
			ErrInvalidPartitioning, n, participants)
	}
	return nil
}

// CheckRange fails unless lo <= n <= hi.
func CheckRange(n, lo, hi int) error {
	if n < lo || n > hi {
		return fmt.Errorf("%w: %d is outside the range %d to %d", ErrInvalidPartitioning, n, lo, hi)
	}
	return nil
}

// CheckGroupSize fails unless the group has exactly want
// participants.
func CheckGroupSize(size, want int) error {
	if size != want {
		return fmt.Errorf("%w: need %d participants but have %d", ErrGroupMismatch, want, size)
	}
	return nil
}

// CheckTopology fails if mode cannot run on the given
// number of participants.
func CheckTopology(mode Mode, participants int) error {
	if mode == PointToPoint && participants != 2 {
		return fmt.Errorf("%w: %s needs exactly 2 participants but has %d",
			ErrUnsupportedTopology, mode, participants)
	}
	return nil
}
