package allreduce

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/unixpickle/dist-reduce/collcomm"
)

func TestNaiveAllreducer(t *testing.T) {
	RunAllreducerTests(t, NaiveAllreducer{})
}

func TestTreeAllreducer(t *testing.T) {
	RunAllreducerTests(t, TreeAllreducer{})
}

func TestRingAllreducer(t *testing.T) {
	RunAllreducerTests(t, RingAllreducer{})
}

func TestSplitSegments(t *testing.T) {
	segs := splitSegments([]float64{1, 2, 3, 4, 5, 6, 7}, 3)
	require.Equal(t, [][]float64{{1, 2, 3}, {4, 5}, {6, 7}}, segs)
}

// TestAllreducersInSequence runs several allreducers back
// to back on the same group.
func TestAllreducersInSequence(t *testing.T) {
	reducers := []Allreducer{NaiveAllreducer{}, TreeAllreducer{}, RingAllreducer{}}
	err := collcomm.SimLauncher{}.Launch(context.Background(), 6,
		func(ctx context.Context, c *collcomm.Comm) error {
			vec := []float64{float64(c.Rank()), 1, 2, 3, 4, 5, 6}
			for _, reducer := range reducers {
				res, err := reducer.Allreduce(ctx, c, vec, collcomm.Sum)
				if err != nil {
					return err
				}
				expected := []float64{15, 6, 12, 18, 24, 30, 36}
				if !reflect.DeepEqual(res, expected) {
					return fmt.Errorf("%T: expected %v but got %v", reducer, expected, res)
				}
			}
			return nil
		})
	require.NoError(t, err)
}
