package programs

import (
	"context"
	"fmt"

	"github.com/unixpickle/dist-reduce/collcomm"
	"github.com/unixpickle/dist-reduce/reducer"
)

const tokenTag = 0

// A Transfer records one side of a token pass.
type Transfer struct {
	Rank  int
	Peer  int
	Token float64
	Sent  bool
}

func (t *Transfer) String() string {
	if t.Sent {
		return fmt.Sprintf("Process %d sent token %g to process %d.", t.Rank, t.Token, t.Peer)
	}
	return fmt.Sprintf("Process %d received token %g from process %d.", t.Rank, t.Token, t.Peer)
}

// PassToken sends token from rank 0 to rank 1.
// The group must have exactly two ranks.
func PassToken(ctx context.Context, c *collcomm.Comm, token float64) (*Transfer, error) {
	if err := reducer.CheckGroupSize(c.Size(), 2); err != nil {
		return nil, err
	}
	if c.IsCoordinator() {
		if err := c.Send(1, tokenTag, []float64{token}); err != nil {
			return nil, err
		}
		return &Transfer{Rank: 0, Peer: 1, Token: token, Sent: true}, nil
	}
	vec, src, err := c.Recv(ctx, 0, tokenTag)
	if err != nil {
		return nil, err
	}
	return &Transfer{Rank: c.Rank(), Peer: src, Token: vec[0]}, nil
}
