package collcomm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/dist-reduce/simulator"
	"go.uber.org/goleak"
)

var errBadInput = errors.New("bad input")

func TestLocalLauncherNoLeaks(t *testing.T) {
	defer goleak.VerifyNone(t)

	err := LocalLauncher{}.Launch(context.Background(), 6, func(ctx context.Context, c *Comm) error {
		_, err := c.Reduce(ctx, 0, []float64{1}, Sum)
		return err
	})
	require.NoError(t, err)
}

// TestLocalLauncherFailureCancels checks that a failing
// rank unblocks peers waiting on it and that only the
// real failure is reported.
func TestLocalLauncherFailureCancels(t *testing.T) {
	defer goleak.VerifyNone(t)

	err := LocalLauncher{}.Launch(context.Background(), 4, func(ctx context.Context, c *Comm) error {
		if c.Rank() == 2 {
			return errBadInput
		}
		_, err := c.Gather(ctx, 0, []float64{1})
		return err
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, errBadInput))

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 1)

	var rankErr *RankError
	require.True(t, errors.As(err, &rankErr))
	require.Equal(t, 2, rankErr.Rank)
}

func TestLocalLauncherTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	err := LocalLauncher{Timeout: 50 * time.Millisecond}.Launch(context.Background(), 2,
		func(ctx context.Context, c *Comm) error {
			if c.IsCoordinator() {
				// Never sends.
				return nil
			}
			_, _, err := c.Recv(ctx, 0, 0)
			return err
		})
	require.True(t, errors.Is(err, ErrTimeout))
}

func TestLocalLauncherContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := LocalLauncher{}.Launch(ctx, 3, func(ctx context.Context, c *Comm) error {
		return c.Barrier(ctx)
	})
	require.NoError(t, err)

	err = LocalLauncher{}.Launch(ctx, 2, func(ctx context.Context, c *Comm) error {
		_, _, err := c.Recv(ctx, AnySource, 0)
		return err
	})
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSimLauncherDeadlock(t *testing.T) {
	defer goleak.VerifyNone(t)

	err := SimLauncher{}.Launch(context.Background(), 2, func(ctx context.Context, c *Comm) error {
		// Both ranks wait for the other.
		_, _, err := c.Recv(ctx, 1-c.Rank(), 0)
		return err
	})
	require.True(t, errors.Is(err, simulator.ErrDeadlock))

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	var rankErr *RankError
	require.True(t, errors.As(merr.Errors[0], &rankErr))
	require.True(t, errors.Is(rankErr.Err, simulator.ErrDeadlock))
}

// TestSimLauncherFailureReleasesPeers checks that ranks
// stuck waiting on a failed rank are freed.
func TestSimLauncherFailureReleasesPeers(t *testing.T) {
	defer goleak.VerifyNone(t)

	for _, size := range []int{2, 5} {
		err := SimLauncher{}.Launch(context.Background(), size,
			func(ctx context.Context, c *Comm) error {
				if c.Rank() == size-1 {
					return errBadInput
				}
				_, err := c.Gather(ctx, 0, []float64{1})
				if err != nil {
					return err
				}
				return c.Barrier(ctx)
			})
		require.True(t, errors.Is(err, errBadInput), "size=%d", size)
		require.True(t, errors.Is(err, simulator.ErrDeadlock), "size=%d", size)
		require.Equal(t, errBadInput, CoordinatorError(err).(*RankError).Err, "size=%d", size)
	}
}

func TestSimLauncherVirtualTime(t *testing.T) {
	network := func() simulator.Network {
		return simulator.NewLinkNetwork(1.0, 8.0)
	}
	var elapsed float64
	err := SimLauncher{Network: network}.Launch(context.Background(), 2,
		func(ctx context.Context, c *Comm) error {
			if c.IsCoordinator() {
				return c.Send(1, 0, []float64{1, 2})
			}
			_, _, err := c.Recv(ctx, 0, 0)
			elapsed = c.Now()
			return err
		})
	require.NoError(t, err)
	require.Equal(t, 1.0+float64(2*8+packetHeader)/8.0, elapsed)
}

func TestLaunchInvalidSize(t *testing.T) {
	for name, l := range testLaunchers() {
		err := l.Launch(context.Background(), 0, func(ctx context.Context, c *Comm) error {
			return nil
		})
		require.Error(t, err, name)
	}
}

func TestCoordinatorError(t *testing.T) {
	err := LocalLauncher{}.Launch(context.Background(), 3, func(ctx context.Context, c *Comm) error {
		return errBadInput
	})
	require.Equal(t, errBadInput, CoordinatorError(err))

	err = LocalLauncher{}.Launch(context.Background(), 3, func(ctx context.Context, c *Comm) error {
		if c.Rank() == 1 {
			return errBadInput
		}
		return nil
	})
	require.Equal(t, &RankError{Rank: 1, Err: errBadInput}, CoordinatorError(err))

	require.Nil(t, CoordinatorError(nil))
	require.Equal(t, errBadInput, CoordinatorError(errBadInput))
}
