package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/unixpickle/dist-reduce/collcomm"
	"github.com/unixpickle/dist-reduce/collcomm/allreduce"
	"github.com/unixpickle/dist-reduce/simulator"
	cli "gopkg.in/src-d/go-cli.v0"
)

var benchAllreducers = []string{"naive", "tree", "ring"}

type benchCmd struct {
	cli.PlainCommand `name:"bench" short-description:"time allreduce algorithms on a simulated network" long-description:"Takes a list of vector sizes. Times are virtual, so results are reproducible."`
	GroupOptions
}

func (c *benchCmd) ExecuteContext(ctx context.Context, args []string) error {
	if err := c.setup(); err != nil {
		return err
	}
	sizes := []int{10, 10000, 1000000}
	if len(args) > 0 {
		sizes = make([]int, len(args))
		for i, arg := range args {
			size, err := strconv.Atoi(arg)
			if err != nil || size < 0 {
				return fmt.Errorf("invalid vector size: %q", arg)
			}
			sizes[i] = size
		}
	}

	header := []string{"Ranks", "Latency", "Rate", "Size"}
	for _, name := range benchAllreducers {
		header = append(header, name)
	}
	w := tablewriter.NewWriter(os.Stdout)
	w.SetHeader(header)
	for _, size := range sizes {
		row := []string{
			strconv.Itoa(c.Procs),
			strconv.FormatFloat(c.Latency, 'f', -1, 64),
			strconv.FormatFloat(c.Rate, 'E', -1, 64),
			strconv.Itoa(size),
		}
		for _, name := range benchAllreducers {
			elapsed, err := c.time(ctx, allreducers[name], size)
			if err != nil {
				return err
			}
			row = append(row, strconv.FormatFloat(elapsed, 'f', 6, 64))
		}
		w.Append(row)
	}
	w.Render()
	return nil
}

// time measures the virtual time until the last rank
// finishes an allreduce of a zero vector.
func (c *benchCmd) time(ctx context.Context, ar allreduce.Allreducer, size int) (float64, error) {
	latency, rate := c.Latency, c.Rate
	launcher := collcomm.SimLauncher{Network: func() simulator.Network {
		return simulator.NewLinkNetwork(latency, rate)
	}}
	finished := make([]float64, c.Procs)
	err := launcher.Launch(ctx, c.Procs, func(ctx context.Context, comm *collcomm.Comm) error {
		_, err := ar.Allreduce(ctx, comm, make([]float64, size), collcomm.Sum)
		finished[comm.Rank()] = comm.Now()
		return err
	})
	if err != nil {
		return 0, err
	}
	return collcomm.Max.Fold(finished), nil
}

func init() {
	app.AddCommand(new(benchCmd))
}
