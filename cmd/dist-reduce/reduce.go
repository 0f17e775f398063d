package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/unixpickle/dist-reduce/collcomm"
	"github.com/unixpickle/dist-reduce/reducer"
	cli "gopkg.in/src-d/go-cli.v0"
)

type reduceCmd struct {
	cli.PlainCommand `name:"reduce" short-description:"reduce the given values across the group" long-description:"Scatters the values, folds each block, and combines the partial results. The number of values must be divisible by the group size."`
	GroupOptions
	Fold       string `long:"fold" default:"sum" description:"operator for folding each block (sum, prod, max, min)"`
	Combine    string `long:"combine" default:"sum" description:"operator for combining partial results (sum, prod, max, min)"`
	Mode       string `long:"mode" default:"reduce" choice:"point-to-point" choice:"reduce" choice:"allreduce" description:"how partial results are combined"`
	Allreducer string `long:"allreducer" default:"tree" choice:"naive" choice:"tree" choice:"ring" description:"algorithm used in allreduce mode"`
}

func (c *reduceCmd) ExecuteContext(ctx context.Context, args []string) error {
	if err := c.setup(); err != nil {
		return err
	}
	r, err := c.reducer()
	if err != nil {
		return err
	}

	data := make([]float64, len(args))
	for i, arg := range args {
		data[i], err = strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %s", arg, err)
		}
	}

	res, err := r.Reduce(ctx, c.launcher(), c.Procs, data)
	if err != nil {
		return report(err)
	}
	logrus.WithField("holders", res.Holders()).Debug("reduction finished")
	fmt.Println("Result:", res.Value())
	return nil
}

func (c *reduceCmd) reducer() (*reducer.Reducer, error) {
	fold, err := collcomm.ParseOp(c.Fold)
	if err != nil {
		return nil, err
	}
	combine, err := collcomm.ParseOp(c.Combine)
	if err != nil {
		return nil, err
	}
	mode, err := reducer.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	return &reducer.Reducer{
		Fold:       fold,
		Combine:    combine,
		Mode:       mode,
		Allreducer: allreducers[c.Allreducer],
	}, nil
}

func init() {
	app.AddCommand(new(reduceCmd))
}
