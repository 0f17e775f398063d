package allreduce

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/unixpickle/dist-reduce/collcomm"
	"github.com/unixpickle/dist-reduce/simulator"
)

// RunAllreducerTests runs a battery of tests on an
// Allreducer.
func RunAllreducerTests(t *testing.T, reducer Allreducer) {
	launchers := map[string]collcomm.Launcher{
		"Local": collcomm.LocalLauncher{Timeout: 10 * time.Second},
		"Link":  collcomm.SimLauncher{},
		"Random": collcomm.SimLauncher{Network: func() simulator.Network {
			return simulator.RandomNetwork{}
		}},
	}
	for _, launcherName := range []string{"Local", "Link", "Random"} {
		for _, numNodes := range []int{1, 2, 5, 15, 16, 17} {
			for _, size := range []int{0, 1, 37} {
				for _, op := range []collcomm.Op{collcomm.Sum, collcomm.Max} {
					launcher := launchers[launcherName]
					testName := fmt.Sprintf("%s/Nodes=%d,Size=%d,Op=%s", launcherName, numNodes,
						size, op)
					t.Run(testName, func(t *testing.T) {
						runAllreducerTest(t, reducer, launcher, numNodes, size, op)
					})
				}
			}
		}
	}
}

func runAllreducerTest(t *testing.T, reducer Allreducer, launcher collcomm.Launcher,
	numNodes, size int, op collcomm.Op) {
	vectors := make([][]float64, numNodes)
	expected := make([]float64, size)
	for j := range expected {
		expected[j] = op.Identity()
	}
	for i := range vectors {
		vectors[i] = make([]float64, size)
		for j := range vectors[i] {
			vectors[i][j] = rand.NormFloat64()
			expected[j] = op.Apply(expected[j], vectors[i][j])
		}
	}

	results := make([][]float64, numNodes)
	err := launcher.Launch(context.Background(), numNodes,
		func(ctx context.Context, c *collcomm.Comm) error {
			res, err := reducer.Allreduce(ctx, c, vectors[c.Rank()], op)
			results[c.Rank()] = res
			return err
		})
	if err != nil {
		t.Fatal(err)
	}

	verifyReductionResults(t, results, expected)
}

func verifyReductionResults(t *testing.T, results [][]float64, expected []float64) {
	for i, res := range results[1:] {
		if len(res) != len(results[0]) {
			t.Errorf("result %d has length %d but expected %d", i+1, len(res), len(results[0]))
			continue
		}
		for j, actual := range res {
			if actual != results[0][j] {
				t.Errorf("result %d is not identical to result 0", i+1)
				break
			}
		}
	}

	if len(results[0]) != len(expected) {
		t.Fatalf("result has length %d but expected %d", len(results[0]), len(expected))
	}
	for i, x := range expected {
		if math.Abs(x-results[0][i]) > 1e-5 {
			t.Errorf("reduction is incorrect (expected %f but got %f at component %d)",
				x, results[0][i], i)
			break
		}
	}
}
