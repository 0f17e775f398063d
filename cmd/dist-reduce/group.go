package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/unixpickle/dist-reduce/collcomm"
	"github.com/unixpickle/dist-reduce/reducer"
	"github.com/unixpickle/dist-reduce/simulator"
)

// GroupOptions configure the group a program runs on.
type GroupOptions struct {
	Procs    int           `long:"procs" short:"n" default:"4" description:"number of ranks in the group"`
	Launcher string        `long:"launcher" default:"local" choice:"local" choice:"sim" description:"run ranks as goroutines or on a virtual-time simulator"`
	Timeout  time.Duration `long:"timeout" default:"0s" description:"maximum time a local rank waits for a message, or 0 to wait forever"`
	Latency  float64       `long:"latency" default:"0.0001" description:"simulated network latency in seconds"`
	Rate     float64       `long:"rate" default:"1e9" description:"simulated network rate in bytes per second"`
	Seed     int64         `long:"seed" default:"0" description:"random seed for generated data, or 0 to use the current time"`
	LogLevel string        `long:"log-level" default:"info" choice:"debug" choice:"info" choice:"warning" choice:"error" description:"logging level"`
}

func (g *GroupOptions) setup() error {
	if g.Procs < 1 {
		return fmt.Errorf("invalid number of ranks: %d", g.Procs)
	}
	level, err := logrus.ParseLevel(g.LogLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	return nil
}

func (g *GroupOptions) launcher() collcomm.Launcher {
	if g.Launcher == "sim" {
		latency, rate := g.Latency, g.Rate
		return collcomm.SimLauncher{Network: func() simulator.Network {
			return simulator.NewLinkNetwork(latency, rate)
		}}
	}
	return collcomm.LocalLauncher{Timeout: g.Timeout}
}

func (g *GroupOptions) rng() *rand.Rand {
	seed := g.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logrus.WithField("seed", seed).Debug("seeded data generator")
	return rand.New(rand.NewSource(seed))
}

// report turns a precondition failure into a single
// diagnostic from the coordinator.
// Other errors are returned as they are.
func report(err error) error {
	if err == nil {
		return nil
	}
	if err := collcomm.CoordinatorError(err); reducer.IsPrecondition(err) {
		fmt.Fprintln(os.Stderr, "error:", err)
		return nil
	}
	return err
}

func parseCount(args []string) (int, error) {
	if err := reducer.CheckArgumentCount(args, 1); err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: count %q is not an integer", reducer.ErrInvalidPartitioning, args[0])
	}
	return n, nil
}

func formatValues(values []float64) string {
	parts := make([]string, len(values))
	for i, x := range values {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}
