//go:build !linux

package clock

import (
	"time"

	"go.uber.org/zap"

	"example.com/sensorhub-time/base/timebase"
)

// SystemClock approximates a boot-relative clock with the monotonic reading
// since process start. Good enough for development on platforms without
// CLOCK_BOOTTIME; deltas stay self-consistent within one process.
type SystemClock struct {
	Log *zap.Logger
}

var _ timebase.BootClock = (*SystemClock)(nil)

var processStart = time.Now()

func (c *SystemClock) Boottime() (sec, nsec int64) {
	d := time.Since(processStart)
	return int64(d / time.Second), int64(d % time.Second)
}
