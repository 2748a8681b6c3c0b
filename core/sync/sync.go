package sync

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"example.com/sensorhub-time/base/timebase"
	"example.com/sensorhub-time/base/timemath"
)

const (
	// Hub samples carry the low 28 bits of the hub's microsecond clock,
	// truncated to 16 us per count.
	shortFieldBits  = 28
	shortFieldRange = int64(1) << shortFieldBits // us
	shortFieldMask  = shortFieldRange - 1
	shortTickMicros = 16

	// A genuine wrap leaves the short value and the estimate on opposite
	// sides of the field range; two values with the same wrap differ by
	// far less. Historical constant, about 61% of the field range.
	rolloverThresholdMicros = 130_000_000

	// Max latency needs to allow for kernel irq delay and streaming queue
	// depth. Nudging the delta at 50 us per sample allows drift tracking
	// up to .25 ms/s at 5 Hz sample rates.
	MaxDriftLatency = 100 * time.Millisecond
	MinDriftLatency = 200 * time.Microsecond
	DriftNudge      = 50 * time.Microsecond
)

// SyncSignal drives the hub wake line. The hub latches its elapsed-time
// counter when it observes the rising edge.
type SyncSignal interface {
	Set(active bool) error
}

// HubTransport reads the hub's latched elapsed-time register: 8 bytes,
// big endian, in microseconds.
type HubTransport interface {
	RequestElapsedTime(ctx context.Context) ([]byte, error)
}

// SampleSource reads the truncated timestamp carried with streamed hub
// samples, in 16 us units.
type SampleSource interface {
	RequestShortTimestamp(ctx context.Context) (uint32, error)
}

// Nudge is the direction in which Compensate adjusted the delta.
type Nudge int

const (
	NudgeRetreated Nudge = -1
	NudgeNone      Nudge = 0
	NudgeAdvanced  Nudge = 1
)

func (n Nudge) String() string {
	switch n {
	case NudgeRetreated:
		return "retreated"
	case NudgeAdvanced:
		return "advanced"
	case NudgeNone:
		return "unchanged"
	default:
		return fmt.Sprintf("Nudge(%d)", int(n))
	}
}

// ClockSync tracks the delta between the host boot clock and the hub's
// free-running clock, delta = host time - hub time, in nanoseconds.
//
// The delta is established by Synchronize, read by Recover, and nudged by
// Compensate, potentially from different goroutines.
type ClockSync struct {
	log    *zap.Logger
	clk    timebase.BootClock
	signal SyncSignal
	hub    HubTransport

	mu           sync.Mutex
	delta        int64
	synchronized bool
}

func NewClockSync(log *zap.Logger, clk timebase.BootClock,
	signal SyncSignal, hub HubTransport) *ClockSync {
	if clk == nil || signal == nil || hub == nil {
		panic("clock, signal, and hub transport must not be nil")
	}
	return &ClockSync{log: log, clk: clk, signal: signal, hub: hub}
}

// Delta returns the tracked delta in nanoseconds, or 0 if no handshake has
// completed yet.
func (c *ClockSync) Delta() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delta
}

// Synchronized reports whether at least one handshake has completed.
func (c *ClockSync) Synchronized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.synchronized
}

// Synchronize performs the wake line handshake and re-establishes the delta.
//
// The hub latches its clock when it observes the rising edge, so the host
// clock must be captured immediately before the edge is driven. The lock
// covers only that pair of operations, never the bus read. On transport
// failure the previously established delta stays in effect.
func (c *ClockSync) Synchronize(ctx context.Context) {
	// ensure the line starts low so the hub sees a clean rising edge
	err := c.signal.Set(false)
	if err != nil {
		c.log.Error("failed to clear sync signal", zap.Error(err))
		return
	}

	c.mu.Lock()
	sec, nsec := c.clk.Boottime()
	err = c.signal.Set(true)
	c.mu.Unlock()
	if err != nil {
		c.log.Error("failed to assert sync signal", zap.Error(err))
		return
	}

	hostTime := timemath.Nanoseconds(sec, nsec)

	buf, err := c.hub.RequestElapsedTime(ctx)
	if err != nil {
		c.log.Error("failed to read hub elapsed time", zap.Error(err))
		return
	}
	if len(buf) != 8 {
		c.log.Error("unexpected hub elapsed time length", zap.Int("len", len(buf)))
		return
	}
	hubTime := int64(binary.BigEndian.Uint64(buf)) * 1000

	// host time is always >= hub time: the hub observes the edge after the
	// host captures its clock and drives the line
	delta := hostTime - hubTime

	c.mu.Lock()
	prev := c.delta
	c.delta = delta
	c.synchronized = true
	c.mu.Unlock()

	c.log.Debug("synchronized hub clock",
		zap.Int64("hub_time_ns", hubTime),
		zap.Int64("host_time_ns", hostTime),
		zap.Int64("delta_change_ns", delta-prev),
	)
}

// Recover reconstructs a full host-timebase timestamp in nanoseconds from a
// truncated hub sample timestamp.
//
// The estimate of the hub clock derived from hostTime and the delta supplies
// the high bits; the reported value supplies the precise low 28 bits. A
// single wrap of either value relative to the other is detected and
// compensated, so recovered timestamps stay monotonic as long as samples
// arrive within about half the field range (~2.2 minutes).
func (c *ClockSync) Recover(hubShort uint32, hostTime int64) int64 {
	hubMicros := int64(hubShort) * shortTickMicros

	c.mu.Lock()
	delta := c.delta
	c.mu.Unlock()

	estimate := timemath.Microseconds(hostTime - delta)
	shortEstimate := estimate & shortFieldMask

	switch {
	case shortEstimate-hubMicros > rolloverThresholdMicros:
		// hub clock wrapped, estimate has not
		estimate += shortFieldRange
		c.log.Debug("rolled estimate forward",
			zap.Int64("estimate_us", shortEstimate),
			zap.Int64("hub_us", hubMicros),
		)
	case hubMicros-shortEstimate > rolloverThresholdMicros:
		// estimate wrapped, hub clock has not
		estimate -= shortFieldRange
		c.log.Debug("rolled estimate back",
			zap.Int64("estimate_us", shortEstimate),
			zap.Int64("hub_us", hubMicros),
		)
	}

	recovered := (estimate &^ shortFieldMask) | (hubMicros & shortFieldMask)
	return recovered*1000 + delta
}

// Compensate nudges the delta by a fixed step based on the gap between a
// recovered sample timestamp and the current host time. The gap should be a
// small positive value; a recovered timestamp lagging too far behind pushes
// the delta up, one too close to or ahead of host time pulls it down.
//
// Outside of streaming the gap is dominated by one-shot request overhead
// rather than drift, so only the lower bound remains active.
func (c *ClockSync) Compensate(recovered, hostTime int64, streaming bool) Nudge {
	offset := hostTime - recovered

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case streaming && offset > MaxDriftLatency.Nanoseconds():
		// increase delta, to reduce the offset on the next sample
		c.delta += DriftNudge.Nanoseconds()
		return NudgeAdvanced
	case offset < MinDriftLatency.Nanoseconds():
		// reduce delta, to increase the offset on the next sample
		c.delta -= DriftNudge.Nanoseconds()
		return NudgeRetreated
	default:
		return NudgeNone
	}
}
