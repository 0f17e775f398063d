package main

import (
	"context"
	"fmt"

	"github.com/unixpickle/dist-reduce/collcomm"
	"github.com/unixpickle/dist-reduce/collcomm/allreduce"
	"github.com/unixpickle/dist-reduce/programs"
	cli "gopkg.in/src-d/go-cli.v0"
)

type stddevCmd struct {
	cli.PlainCommand `name:"stddev" short-description:"compute the standard deviation of random values" long-description:"Takes the number of values, which must be between 1 and 10 and divisible by the group size."`
	GroupOptions
	Allreducer string `long:"allreducer" default:"tree" choice:"naive" choice:"tree" choice:"ring" description:"algorithm used to share the mean"`
}

func (c *stddevCmd) ExecuteContext(ctx context.Context, args []string) error {
	if err := c.setup(); err != nil {
		return err
	}
	n, err := parseCount(args)
	if err != nil {
		return report(err)
	}
	ar := allreducers[c.Allreducer]

	rng := c.rng()
	err = c.launcher().Launch(ctx, c.Procs, func(ctx context.Context, comm *collcomm.Comm) error {
		var data []float64
		if comm.IsCoordinator() && programs.ValidateStdDev(n, comm.Size()) == nil {
			data = programs.RandomData(rng, n)
			fmt.Println("Values:", formatValues(data))
		}
		res, err := programs.StdDev(ctx, comm, n, data, ar)
		if res != nil {
			fmt.Println("Mean:", res.Mean)
			fmt.Println("Standard deviation:", res.StdDev)
			fmt.Printf("Elapsed: %fs\n", res.Elapsed)
		}
		return err
	})
	return report(err)
}

var allreducers = map[string]allreduce.Allreducer{
	"naive": allreduce.NaiveAllreducer{},
	"tree":  allreduce.TreeAllreducer{},
	"ring":  allreduce.RingAllreducer{},
}

func init() {
	app.AddCommand(new(stddevCmd))
}
