package collcomm

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
	"github.com/unixpickle/dist-reduce/simulator"
)

// A RankFunc is the program every rank of a group runs.
type RankFunc func(ctx context.Context, c *Comm) error

// A Launcher starts a group of ranks and waits for all of
// them to return.
//
// If any rank fails, the returned error is a
// *multierror.Error of *RankError values.
type Launcher interface {
	Launch(ctx context.Context, size int, f RankFunc) error
}

// A RankError is an error returned by one rank.
type RankError struct {
	Rank int
	Err  error
}

func (r *RankError) Error() string {
	return fmt.Sprintf("rank %d: %s", r.Rank, r.Err)
}

func (r *RankError) Unwrap() error {
	return r.Err
}

// CoordinatorError picks rank 0's error out of a group
// error, so that a failure shared by every rank is only
// reported once.
//
// If rank 0 did not fail, the first error is returned.
func CoordinatorError(err error) error {
	var merr *multierror.Error
	if !errors.As(err, &merr) || len(merr.Errors) == 0 {
		return err
	}
	for _, e := range merr.Errors {
		var rankErr *RankError
		if errors.As(e, &rankErr) && rankErr.Rank == 0 {
			return rankErr.Err
		}
	}
	return merr.Errors[0]
}

// groupError combines per-rank errors.
//
// Ranks that only failed because a sibling's failure
// cancelled or stranded them are left out.
func groupError(errs []error, extra ...error) error {
	var primary bool
	for _, err := range errs {
		if err != nil && !isSecondary(err) {
			primary = true
		}
	}
	var merr *multierror.Error
	for rank, err := range errs {
		if err == nil || (primary && isSecondary(err)) {
			continue
		}
		merr = multierror.Append(merr, &RankError{Rank: rank, Err: err})
	}
	for _, err := range extra {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}

func isSecondary(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, simulator.ErrDeadlock)
}

func launchLogger(kind string, size int) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"session":  uuid.NewV4().String(),
		"launcher": kind,
		"ranks":    size,
	})
}

func checkSize(size int) error {
	if size < 1 {
		return fmt.Errorf("invalid group size: %d", size)
	}
	return nil
}
