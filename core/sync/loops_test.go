package sync_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"example.com/sensorhub-time/core/sync"
)

type testSampleSource struct{}

func (testSampleSource) RequestShortTimestamp(_ context.Context) (uint32, error) {
	return 0, nil
}

func TestRunResyncLoopRejectsInvalidInterval(t *testing.T) {
	cs := newTestClockSync(&testClock{}, &testSignal{}, &testHub{})

	defer func() {
		if recover() == nil {
			t.Fatal("no panic for non-positive resync interval")
		}
	}()
	sync.RunResyncLoop(zap.NewNop(), cs, 0)
}

func TestRunSampleLoopRejectsInvalidInterval(t *testing.T) {
	clk := &testClock{}
	cs := newTestClockSync(clk, &testSignal{}, &testHub{})

	defer func() {
		if recover() == nil {
			t.Fatal("no panic for non-positive sample interval")
		}
	}()
	sync.RunSampleLoop(zap.NewNop(), cs, clk, &testSampleSource{}, -time.Second, true)
}
