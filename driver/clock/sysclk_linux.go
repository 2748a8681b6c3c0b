//go:build linux

package clock

import (
	"go.uber.org/zap"

	"golang.org/x/sys/unix"

	"example.com/sensorhub-time/base/timebase"
)

// SystemClock reads CLOCK_BOOTTIME, the boot-relative monotonic clock that
// keeps counting across suspend. The hub's elapsed-time counter is relative
// to hub boot, so both sides measure time since their respective boot.
type SystemClock struct {
	Log *zap.Logger
}

var _ timebase.BootClock = (*SystemClock)(nil)

func (c *SystemClock) Boottime() (sec, nsec int64) {
	var ts unix.Timespec
	err := unix.ClockGettime(unix.CLOCK_BOOTTIME, &ts)
	if err != nil {
		c.Log.Fatal("unix.ClockGettime failed", zap.Error(err))
	}
	return ts.Unix()
}
