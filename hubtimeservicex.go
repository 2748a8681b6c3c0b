// Driver for quick experiments

package main

import (
	"go.uber.org/zap"

	"example.com/sensorhub-time/base/timemath"
	"example.com/sensorhub-time/driver/clock"
)

func runX() {
	initLogger(true /* verbose */)

	clk := &clock.SystemClock{Log: log}
	sec, nsec := clk.Boottime()
	log.Debug("boot clock",
		zap.Int64("sec", sec),
		zap.Int64("nsec", nsec),
		zap.Int64("total_ns", timemath.Nanoseconds(sec, nsec)),
	)
}
