package sweep_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"gavel/sweep"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunnerRunsImmediatelyAndPeriodically(t *testing.T) {
	var passes atomic.Int64
	runner := sweep.NewRunner("TestSweep", 10*time.Millisecond, func(ctx context.Context) error {
		passes.Add(1)
		return nil
	})
	runner.Start()
	defer runner.Close()

	assert.Eventually(t, func() bool {
		return passes.Load() >= 3
	}, time.Second, 5*time.Millisecond, "expected the first pass plus ticks")
}

func TestRunnerCloseStopsPasses(t *testing.T) {
	var passes atomic.Int64
	runner := sweep.NewRunner("TestSweep", 10*time.Millisecond, func(ctx context.Context) error {
		passes.Add(1)
		return nil
	})
	runner.Start()

	assert.Eventually(t, func() bool { return passes.Load() >= 1 }, time.Second, time.Millisecond)
	runner.Close()

	settled := passes.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, passes.Load(), "no passes after Close")
}

func TestRunnerSurvivesFailingPasses(t *testing.T) {
	var passes atomic.Int64
	runner := sweep.NewRunner("TestSweep", 10*time.Millisecond, func(ctx context.Context) error {
		passes.Add(1)
		return errors.New("transient failure")
	})
	runner.Start()
	defer runner.Close()

	assert.Eventually(t, func() bool {
		return passes.Load() >= 3
	}, time.Second, 5*time.Millisecond, "errors must not stop the ticker")
}

func TestRunnerStartAndCloseAreIdempotent(t *testing.T) {
	var passes atomic.Int64
	runner := sweep.NewRunner("TestSweep", time.Hour, func(ctx context.Context) error {
		passes.Add(1)
		return nil
	})
	runner.Start()
	runner.Start()

	assert.Eventually(t, func() bool { return passes.Load() == 1 }, time.Second, time.Millisecond)

	runner.Close()
	runner.Close()
	assert.EqualValues(t, 1, passes.Load())
}
