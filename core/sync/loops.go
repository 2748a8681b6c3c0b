package sync

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"go.uber.org/zap"

	"example.com/sensorhub-time/base/metrics"
	"example.com/sensorhub-time/base/timebase"
	"example.com/sensorhub-time/base/timemath"
)

// RunResyncLoop re-runs the handshake periodically to re-establish the delta
// from scratch, bounding the error the fixed-step compensation can
// accumulate. It does not return.
func RunResyncLoop(log *zap.Logger, cs *ClockSync, interval time.Duration) {
	if interval <= 0 {
		panic("invalid resync interval")
	}
	syncCounter := promauto.NewCounter(prometheus.CounterOpts{
		Name: metrics.SyncSyncsN,
		Help: metrics.SyncSyncsH,
	})
	deltaGauge := promauto.NewGauge(prometheus.GaugeOpts{
		Name: metrics.SyncDeltaN,
		Help: metrics.SyncDeltaH,
	})
	ctx := context.Background()
	for {
		prev := cs.Delta()
		cs.Synchronize(ctx)
		syncCounter.Inc()
		delta := cs.Delta()
		deltaGauge.Set(float64(delta))
		log.Debug("re-established hub clock delta",
			zap.Int64("delta_ns", delta),
			zap.Int64("delta_change_ns", delta-prev),
		)
		time.Sleep(interval)
	}
}

// RunSampleLoop reads the hub's truncated sample timestamp at the configured
// rate, recovers the full host-timebase timestamp, and feeds the result back
// into drift compensation. It does not return.
func RunSampleLoop(log *zap.Logger, cs *ClockSync, clk timebase.BootClock,
	src SampleSource, interval time.Duration, streaming bool) {
	if interval <= 0 {
		panic("invalid sample interval")
	}
	offsetGauge := promauto.NewGauge(prometheus.GaugeOpts{
		Name: metrics.SampleOffsetN,
		Help: metrics.SampleOffsetH,
	})
	errCounter := promauto.NewCounter(prometheus.CounterOpts{
		Name: metrics.SampleErrorsN,
		Help: metrics.SampleErrorsH,
	})
	nudgeCounter := promauto.NewCounterVec(prometheus.CounterOpts{
		Name: metrics.SampleNudgesN,
		Help: metrics.SampleNudgesH,
	}, []string{"direction"})
	ctx := context.Background()
	for {
		hubShort, err := src.RequestShortTimestamp(ctx)
		if err != nil {
			log.Error("failed to read hub sample timestamp", zap.Error(err))
			errCounter.Inc()
		} else {
			sec, nsec := clk.Boottime()
			hostTime := timemath.Nanoseconds(sec, nsec)
			recovered := cs.Recover(hubShort, hostTime)
			offsetGauge.Set(float64(hostTime - recovered))
			nudge := cs.Compensate(recovered, hostTime, streaming)
			if nudge != NudgeNone {
				nudgeCounter.WithLabelValues(nudge.String()).Inc()
				log.Debug("drift compensation nudged delta",
					zap.Stringer("direction", nudge),
					zap.Int64("offset_us", timemath.Microseconds(hostTime-recovered)),
				)
			}
		}
		time.Sleep(interval)
	}
}
