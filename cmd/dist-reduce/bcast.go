package main

import (
	"context"
	"fmt"

	"github.com/unixpickle/dist-reduce/collcomm"
	"github.com/unixpickle/dist-reduce/programs"
	cli "gopkg.in/src-d/go-cli.v0"
)

type bcastCmd struct {
	cli.PlainCommand `name:"bcast" short-description:"broadcast a sequence, offset it by rank, and multiply" long-description:"The coordinator broadcasts the sequence 0, 1, ..., count-1. Every rank adds its rank to each element, and the elementwise product of all ranks' vectors is reduced to rank 0."`
	GroupOptions
	Count int `long:"count" default:"4" description:"length of the broadcast sequence"`
}

func (c *bcastCmd) ExecuteContext(ctx context.Context, args []string) error {
	if err := c.setup(); err != nil {
		return err
	}
	err := c.launcher().Launch(ctx, c.Procs, func(ctx context.Context, comm *collcomm.Comm) error {
		if comm.IsCoordinator() && programs.ValidateBcast(c.Count) == nil {
			fmt.Println("Broadcast:", formatValues(programs.BcastInput(c.Count)))
		}
		res, ok, err := programs.BcastReduce(ctx, comm, c.Count)
		if ok {
			fmt.Println("Product:", formatValues(res))
		}
		return err
	})
	return report(err)
}

func init() {
	app.AddCommand(new(bcastCmd))
}
