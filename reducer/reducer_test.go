package reducer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/unixpickle/dist-reduce/collcomm"
	"github.com/unixpickle/dist-reduce/collcomm/allreduce"
	"github.com/unixpickle/dist-reduce/simulator"
)

func testLaunchers() map[string]collcomm.Launcher {
	return map[string]collcomm.Launcher{
		"Local": collcomm.LocalLauncher{Timeout: 10 * time.Second},
		"Sim":   collcomm.SimLauncher{},
		"SimRandom": collcomm.SimLauncher{Network: func() simulator.Network {
			return simulator.RandomNetwork{}
		}},
	}
}

func sequence(n int) []float64 {
	res := make([]float64, n)
	for i := range res {
		res[i] = float64(i + 1)
	}
	return res
}

func TestScatter(t *testing.T) {
	partitions, err := Scatter(sequence(8), 4)
	require.NoError(t, err)
	require.Equal(t, [][]float64{{1, 2}, {3, 4}, {5, 6}, {7, 8}}, partitions)

	again, err := Scatter(sequence(8), 4)
	require.NoError(t, err)
	require.Equal(t, partitions, again)

	for _, p := range []int{1, 2, 3, 6, 12} {
		data := sequence(12)
		partitions, err := Scatter(data, p)
		require.NoError(t, err)
		require.Len(t, partitions, p)
		for i, part := range partitions {
			require.Equal(t, data[i*(12/p):(i+1)*(12/p)], part)
		}
	}
}

func TestScatterIndivisible(t *testing.T) {
	partitions, err := Scatter(sequence(7), 3)
	require.True(t, errors.Is(err, ErrInvalidPartitioning))
	require.Nil(t, partitions)

	_, err = Scatter(sequence(4), 0)
	require.True(t, errors.Is(err, ErrInvalidPartitioning))
}

func TestLocalFold(t *testing.T) {
	require.Equal(t, 12.0, LocalFold([]float64{3, 4}, collcomm.Prod))
	require.Equal(t, 7.0, LocalFold([]float64{3, 4}, collcomm.Sum))
	require.Equal(t, 1.0, LocalFold(nil, collcomm.Prod))
	require.Equal(t, 0.0, LocalFold(nil, collcomm.Sum))
}

// TestProductReduceScenario covers 1..8 over four ranks,
// whose partial products are 2, 12, 30, and 56.
func TestProductReduceScenario(t *testing.T) {
	for name, l := range testLaunchers() {
		t.Run(name, func(t *testing.T) {
			r := &Reducer{Fold: collcomm.Prod, Combine: collcomm.Prod, Mode: ReduceToCoordinator}
			res, err := r.Reduce(context.Background(), l, 4, sequence(8))
			require.NoError(t, err)
			require.Equal(t, 40320.0, res.Value())
			require.Equal(t, []int{0}, res.Holders())
		})
	}

	partitions, err := Scatter(sequence(8), 4)
	require.NoError(t, err)
	var partials []float64
	for _, part := range partitions {
		partials = append(partials, LocalFold(part, collcomm.Prod))
	}
	require.Equal(t, []float64{2, 12, 30, 56}, partials)
}

func TestProductMatchesSequential(t *testing.T) {
	for n := 1; n <= 12; n++ {
		for p := 1; p <= n; p++ {
			if n%p != 0 {
				continue
			}
			data := make([]float64, n)
			for i := range data {
				data[i] = float64(rand.Intn(10) + 1)
			}
			res, err := DistributedReduce(context.Background(), data, p, collcomm.Prod,
				collcomm.Prod, ReduceToCoordinator)
			require.NoError(t, err, "n=%d p=%d", n, p)
			require.Equal(t, collcomm.Prod.Fold(data), res.Value(), "n=%d p=%d", n, p)
		}
	}
}

func TestAllReduceDeliversEverywhere(t *testing.T) {
	allreducers := map[string]allreduce.Allreducer{
		"Default": nil,
		"Naive":   allreduce.NaiveAllreducer{},
		"Ring":    allreduce.RingAllreducer{},
	}
	for launcherName, l := range testLaunchers() {
		for arName, ar := range allreducers {
			for _, p := range []int{1, 2, 3, 5, 10} {
				name := fmt.Sprintf("%s/%s/Ranks=%d", launcherName, arName, p)
				l, ar, p := l, ar, p
				t.Run(name, func(t *testing.T) {
					r := &Reducer{Fold: collcomm.Sum, Combine: collcomm.Sum, Mode: AllReduce,
						Allreducer: ar}
					res, err := r.Reduce(context.Background(), l, p, sequence(30))
					require.NoError(t, err)
					require.Len(t, res.Holders(), p)
					for rank, v := range res.Values {
						require.Equal(t, 465.0, v, "rank %d", rank)
					}
				})
			}
		}
	}
}

// TestCombineOrderInvariance permutes which rank holds
// each partial, and the random network shuffles arrival
// order on top of that.
func TestCombineOrderInvariance(t *testing.T) {
	partials := []float64{2, 12, 30, 56, 3}
	launcher := collcomm.SimLauncher{Network: func() simulator.Network {
		return simulator.RandomNetwork{}
	}}
	for _, mode := range []Mode{ReduceToCoordinator, AllReduce} {
		for _, op := range []collcomm.Op{collcomm.Sum, collcomm.Prod, collcomm.Max} {
			expected := op.Fold(partials)
			for trial := 0; trial < 20; trial++ {
				perm := rand.Perm(len(partials))
				permuted := make([]float64, len(partials))
				for i, j := range perm {
					permuted[i] = partials[j]
				}
				r := &Reducer{Fold: op, Combine: op, Mode: mode}
				res, err := r.CombinePartials(context.Background(), launcher, permuted)
				require.NoError(t, err)
				require.Equal(t, expected, res.Value(), "mode=%s op=%s perm=%v", mode, op, perm)
			}
		}
	}
}

func TestPointToPoint(t *testing.T) {
	for name, l := range testLaunchers() {
		t.Run(name, func(t *testing.T) {
			r := &Reducer{Fold: collcomm.Sum, Combine: collcomm.Sum, Mode: PointToPoint}
			res, err := r.Reduce(context.Background(), l, 2, sequence(6))
			require.NoError(t, err)
			require.Equal(t, 21.0, res.Value())
			require.Equal(t, []int{0}, res.Holders())
		})
	}
}

type countingLauncher struct {
	launches int
}

func (c *countingLauncher) Launch(ctx context.Context, size int, f collcomm.RankFunc) error {
	c.launches++
	return collcomm.LocalLauncher{}.Launch(ctx, size, f)
}

func TestPointToPointTopology(t *testing.T) {
	for _, p := range []int{1, 3, 4} {
		l := &countingLauncher{}
		r := &Reducer{Fold: collcomm.Sum, Combine: collcomm.Sum, Mode: PointToPoint}

		_, err := r.CombinePartials(context.Background(), l, sequence(p))
		require.True(t, errors.Is(err, ErrUnsupportedTopology), "p=%d", p)

		_, err = r.Reduce(context.Background(), l, p, sequence(12))
		require.True(t, errors.Is(err, ErrUnsupportedTopology), "p=%d", p)

		require.Equal(t, 0, l.launches, "no group should be launched")
	}

	_, err := Combine(context.Background(), sequence(3), collcomm.Sum, PointToPoint)
	require.True(t, errors.Is(err, ErrUnsupportedTopology))
}

func TestReduceIndivisible(t *testing.T) {
	l := &countingLauncher{}
	r := &Reducer{Fold: collcomm.Sum, Combine: collcomm.Sum, Mode: ReduceToCoordinator}
	_, err := r.Reduce(context.Background(), l, 3, sequence(7))
	require.True(t, errors.Is(err, ErrInvalidPartitioning))
	require.Equal(t, 0, l.launches)
}

// TestRankChecksAgree runs the per-rank code with a bad
// element count so that every rank must reject it on its
// own.
func TestRankChecksAgree(t *testing.T) {
	r := &Reducer{Fold: collcomm.Sum, Combine: collcomm.Sum, Mode: ReduceToCoordinator}
	err := collcomm.LocalLauncher{}.Launch(context.Background(), 3,
		func(ctx context.Context, c *collcomm.Comm) error {
			var data []float64
			if c.IsCoordinator() {
				data = sequence(7)
			}
			_, _, err := r.ReduceRank(ctx, c, 7, data)
			return err
		})
	require.True(t, errors.Is(err, ErrInvalidPartitioning))

	for rank := 0; rank < 3; rank++ {
		require.Contains(t, err.Error(), fmt.Sprintf("rank %d:", rank))
	}
	require.True(t, errors.Is(collcomm.CoordinatorError(err), ErrInvalidPartitioning))
}

// TestStandardDeviationScenario computes the standard
// deviation of 1..10 with an allreduce for the mean and a
// reduce for the squared deviations.
func TestStandardDeviationScenario(t *testing.T) {
	data := sequence(10)
	var stddev float64
	err := collcomm.SimLauncher{}.Launch(context.Background(), 5,
		func(ctx context.Context, c *collcomm.Comm) error {
			var local []float64
			if c.IsCoordinator() {
				local = data
			}
			partition, err := ScatterRank(ctx, c, len(data), local)
			if err != nil {
				return err
			}
			sum := &Reducer{Combine: collcomm.Sum, Mode: AllReduce}
			total, _, err := sum.CombineRank(ctx, c, LocalFold(partition, collcomm.Sum))
			if err != nil {
				return err
			}
			mean := total / float64(len(data))
			if mean != 5.5 {
				return fmt.Errorf("rank %d: unexpected mean %f", c.Rank(), mean)
			}
			var squares float64
			for _, x := range partition {
				squares += (x - mean) * (x - mean)
			}
			sq := &Reducer{Combine: collcomm.Sum, Mode: ReduceToCoordinator}
			totalSquares, ok, err := sq.CombineRank(ctx, c, squares)
			if ok {
				stddev = math.Sqrt(totalSquares / float64(len(data)))
			}
			return err
		})
	require.NoError(t, err)
	require.InDelta(t, 2.8723, stddev, 1e-4)
}

func TestParseMode(t *testing.T) {
	for _, mode := range []Mode{PointToPoint, ReduceToCoordinator, AllReduce} {
		parsed, err := ParseMode(mode.String())
		require.NoError(t, err)
		require.Equal(t, mode, parsed)
	}
	_, err := ParseMode("scan")
	require.Error(t, err)
}

func TestIsPrecondition(t *testing.T) {
	require.True(t, IsPrecondition(CheckGroupSize(3, 2)))
	require.True(t, IsPrecondition(CheckRange(11, 1, 10)))
	require.True(t, IsPrecondition(CheckArgumentCount(nil, 1)))
	require.True(t, IsPrecondition(fmt.Errorf("wrapped: %w", CheckTopology(PointToPoint, 3))))
	require.False(t, IsPrecondition(errors.New("boom")))
	require.NoError(t, CheckRange(10, 1, 10))
	require.NoError(t, CheckGroupSize(2, 2))
	require.NoError(t, CheckTopology(AllReduce, 3))
}
