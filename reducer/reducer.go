// Package reducer scatters a dataset across a fixed group
// of participants, folds each partition locally, and
// combines the partial results with an associative
// operator.
package reducer

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/unixpickle/dist-reduce/collcomm"
	"github.com/unixpickle/dist-reduce/collcomm/allreduce"
)

// Mode selects how partial results are combined.
type Mode int

const (
	// PointToPoint has rank 1 send its partial to rank 0.
	// It only works with exactly two participants.
	PointToPoint Mode = iota

	// ReduceToCoordinator combines every partial at
	// rank 0 only.
	ReduceToCoordinator

	// AllReduce combines every partial and gives the
	// result to every rank.
	AllReduce
)

var modeNames = map[Mode]string{
	PointToPoint:        "point-to-point",
	ReduceToCoordinator: "reduce",
	AllReduce:           "allreduce",
}

// ParseMode looks up a Mode by its String() name.
func ParseMode(name string) (Mode, error) {
	for mode, modeName := range modeNames {
		if strings.EqualFold(name, modeName) {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown mode: %q", name)
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Result holds each rank's copy of a reduced value.
type Result struct {
	Mode Mode

	// Values[i] is rank i's copy, which is only
	// meaningful if Valid[i] is set.
	Values []float64
	Valid  []bool
}

func newResult(mode Mode, participants int) *Result {
	return &Result{
		Mode:   mode,
		Values: make([]float64, participants),
		Valid:  make([]bool, participants),
	}
}

// Value gets the coordinator's copy.
func (r *Result) Value() float64 {
	return r.Values[0]
}

// Holders lists the ranks with a valid copy.
func (r *Result) Holders() []int {
	var res []int
	for rank, ok := range r.Valid {
		if ok {
			res = append(res, rank)
		}
	}
	return res
}

// Scatter splits data into one contiguous block per
// participant, in rank order.
//
// If the data cannot be split evenly, no partitions are
// produced.
func Scatter(data []float64, participants int) ([][]float64, error) {
	if err := CheckPartitioning(len(data), participants); err != nil {
		return nil, err
	}
	chunk := len(data) / participants
	res := make([][]float64, participants)
	for i := range res {
		res[i] = append([]float64{}, data[i*chunk:(i+1)*chunk]...)
	}
	return res, nil
}

// LocalFold folds one partition into a scalar.
func LocalFold(partition []float64, op collcomm.Op) float64 {
	return op.Fold(partition)
}

// A Reducer describes one distributed reduction.
type Reducer struct {
	Fold    collcomm.Op
	Combine collcomm.Op
	Mode    Mode

	// Allreducer is used in AllReduce mode.
	// If nil, a TreeAllreducer is used.
	Allreducer allreduce.Allreducer
}

// ScatterRank is the per-rank side of Scatter.
//
// Every rank passes the total element count n; only the
// coordinator's data is read, and it must have n values.
func ScatterRank(ctx context.Context, c *collcomm.Comm, n int, data []float64) ([]float64, error) {
	if err := CheckPartitioning(n, c.Size()); err != nil {
		return nil, err
	}
	if c.IsCoordinator() && len(data) != n {
		panic(fmt.Sprintf("coordinator has %d values but expected %d", len(data), n))
	}
	return c.Scatter(ctx, 0, data)
}

// CombineRank is the per-rank side of a combine.
//
// It returns this rank's copy of the result, and whether
// that copy is valid for the Reducer's Mode.
func (r *Reducer) CombineRank(ctx context.Context, c *collcomm.Comm,
	partial float64) (float64, bool, error) {
	if err := CheckTopology(r.Mode, c.Size()); err != nil {
		return 0, false, err
	}
	switch r.Mode {
	case PointToPoint:
		round := c.NewRound()
		if c.Rank() == 1 {
			return 0, false, round.Send(0, []float64{partial})
		}
		other, err := round.Recv(ctx, 1)
		if err != nil {
			return 0, false, err
		}
		return r.Combine.Apply(partial, other[0]), true, nil
	case ReduceToCoordinator:
		res, err := c.Reduce(ctx, 0, []float64{partial}, r.Combine)
		if err != nil || res == nil {
			return 0, false, err
		}
		return res[0], true, nil
	case AllReduce:
		res, err := r.allreducer().Allreduce(ctx, c, []float64{partial}, r.Combine)
		if err != nil {
			return 0, false, err
		}
		return res[0], true, nil
	default:
		panic(fmt.Sprintf("unknown mode: %s", r.Mode))
	}
}

// ReduceRank is the per-rank side of a full reduction:
// scatter, local fold, and combine.
func (r *Reducer) ReduceRank(ctx context.Context, c *collcomm.Comm, n int,
	data []float64) (float64, bool, error) {
	if err := CheckTopology(r.Mode, c.Size()); err != nil {
		return 0, false, err
	}
	partition, err := ScatterRank(ctx, c, n, data)
	if err != nil {
		return 0, false, err
	}
	partial := LocalFold(partition, r.Fold)
	c.Work(len(partition))
	return r.CombineRank(ctx, c, partial)
}

// Reduce runs a full reduction of data on a group of the
// given size.
//
// Preconditions are checked before the group is launched.
func (r *Reducer) Reduce(ctx context.Context, l collcomm.Launcher, participants int,
	data []float64) (*Result, error) {
	if err := r.check(participants, len(data)); err != nil {
		return nil, err
	}
	r.logger(participants).WithField("values", len(data)).Debug("starting reduction")

	res := newResult(r.Mode, participants)
	err := l.Launch(ctx, participants, func(ctx context.Context, c *collcomm.Comm) error {
		var local []float64
		if c.IsCoordinator() {
			local = data
		}
		var err error
		res.Values[c.Rank()], res.Valid[c.Rank()], err = r.ReduceRank(ctx, c, len(data), local)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CombinePartials combines one partial value per
// participant, with partials[i] starting on rank i.
func (r *Reducer) CombinePartials(ctx context.Context, l collcomm.Launcher,
	partials []float64) (*Result, error) {
	if err := CheckTopology(r.Mode, len(partials)); err != nil {
		return nil, err
	}
	r.logger(len(partials)).Debug("combining partials")

	res := newResult(r.Mode, len(partials))
	err := l.Launch(ctx, len(partials), func(ctx context.Context, c *collcomm.Comm) error {
		var err error
		res.Values[c.Rank()], res.Valid[c.Rank()], err = r.CombineRank(ctx, c, partials[c.Rank()])
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Reducer) check(participants, n int) error {
	if err := CheckTopology(r.Mode, participants); err != nil {
		return err
	}
	return CheckPartitioning(n, participants)
}

func (r *Reducer) allreducer() allreduce.Allreducer {
	if r.Allreducer == nil {
		return allreduce.TreeAllreducer{}
	}
	return r.Allreducer
}

func (r *Reducer) logger(participants int) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"mode":         r.Mode,
		"fold":         r.Fold,
		"combine":      r.Combine,
		"participants": participants,
	})
}

// DistributedReduce scatters data over a local group of
// participants, folds each partition with foldOp, and
// combines the partials with combineOp according to mode.
func DistributedReduce(ctx context.Context, data []float64, participants int, foldOp,
	combineOp collcomm.Op, mode Mode) (*Result, error) {
	r := &Reducer{Fold: foldOp, Combine: combineOp, Mode: mode}
	return r.Reduce(ctx, collcomm.LocalLauncher{}, participants, data)
}

// Combine combines one partial value per participant on a
// local group.
func Combine(ctx context.Context, partials []float64, op collcomm.Op,
	mode Mode) (*Result, error) {
	r := &Reducer{Fold: op, Combine: op, Mode: mode}
	return r.CombinePartials(ctx, collcomm.LocalLauncher{}, partials)
}
