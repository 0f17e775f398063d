package main

import (
	"context"
	"fmt"

	"github.com/unixpickle/dist-reduce/collcomm"
	"github.com/unixpickle/dist-reduce/programs"
	cli "gopkg.in/src-d/go-cli.v0"
)

type tokenCmd struct {
	cli.PlainCommand `name:"token" short-description:"pass a token from rank 0 to rank 1" long-description:"Needs a group of exactly two ranks."`
	GroupOptions
	Token float64 `long:"token" default:"1" description:"token value to send"`
}

func (c *tokenCmd) ExecuteContext(ctx context.Context, args []string) error {
	if err := c.setup(); err != nil {
		return err
	}
	transfers := make([]*programs.Transfer, c.Procs)
	err := c.launcher().Launch(ctx, c.Procs, func(ctx context.Context, comm *collcomm.Comm) error {
		var err error
		transfers[comm.Rank()], err = programs.PassToken(ctx, comm, c.Token)
		return err
	})
	if err != nil {
		return report(err)
	}
	for _, t := range transfers {
		fmt.Println(t)
	}
	return nil
}

func init() {
	app.AddCommand(new(tokenCmd))
}
