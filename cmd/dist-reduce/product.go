package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/unixpickle/dist-reduce/collcomm"
	"github.com/unixpickle/dist-reduce/programs"
	cli "gopkg.in/src-d/go-cli.v0"
)

type productCmd struct {
	cli.PlainCommand `name:"product" short-description:"multiply random values scattered across the group" long-description:"Generates the given number of random values for each rank on the coordinator, scatters them, multiplies each block, and combines the partial products at the coordinator."`
	GroupOptions
	Gather bool `long:"gather" description:"gather the partial products instead of reducing them"`
}

func (c *productCmd) ExecuteContext(ctx context.Context, args []string) error {
	if err := c.setup(); err != nil {
		return err
	}
	perRank, err := parseCount(args)
	if err != nil {
		return report(err)
	}

	program := programs.ScatterReduceProduct
	if c.Gather {
		program = programs.ScatterGatherProduct
	}

	rng := c.rng()
	err = c.launcher().Launch(ctx, c.Procs, func(ctx context.Context, comm *collcomm.Comm) error {
		var data []float64
		if comm.IsCoordinator() && perRank > 0 {
			data = programs.RandomData(rng, perRank*comm.Size())
			fmt.Println("Values:", formatValues(data))
		}
		product, ok, err := program(ctx, comm, perRank, data)
		if ok {
			fmt.Println("Product:", product)
		}
		return err
	})
	logrus.WithField("gather", c.Gather).Debug("product finished")
	return report(err)
}

func init() {
	app.AddCommand(new(productCmd))
}
