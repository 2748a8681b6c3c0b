package benchmark

import (
	"context"
	"encoding/binary"
	"log"
	"os"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"go.uber.org/zap"

	"example.com/sensorhub-time/base/timebase"
	"example.com/sensorhub-time/base/timemath"
	hubsync "example.com/sensorhub-time/core/sync"
)

// synthHub simulates a hub whose clock started skew nanoseconds after the
// host clock.
type synthHub struct {
	clk  timebase.BootClock
	skew int64
}

func (h *synthHub) RequestElapsedTime(_ context.Context) ([]byte, error) {
	sec, nsec := h.clk.Boottime()
	micros := uint64(timemath.Microseconds(timemath.Nanoseconds(sec, nsec) - h.skew))
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, micros)
	return buf, nil
}

func (h *synthHub) shortTimestamp(hostTime int64) uint32 {
	micros := timemath.Microseconds(hostTime - h.skew)
	return uint32((micros / 16) & 0xFFFFFF)
}

type nopSignal struct{}

func (nopSignal) Set(bool) error { return nil }

// RunRecoveryBenchmark measures per-sample timestamp recovery and drift
// compensation latency against a simulated hub and prints the percentile
// distribution in nanoseconds.
func RunRecoveryBenchmark(clk timebase.BootClock) {
	const numWorker = 1
	const numSamplePerWorker = 1_000_000
	var mu sync.Mutex
	sg := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(numWorker)
	for i := numWorker; i > 0; i-- {
		go func() {
			hg := hdrhistogram.New(1, 10_000_000, 5)

			sec, nsec := clk.Boottime()
			h := &synthHub{clk: clk, skew: timemath.Nanoseconds(sec, nsec) / 2}
			cs := hubsync.NewClockSync(zap.NewNop(), clk, nopSignal{}, h)
			cs.Synchronize(context.Background())

			defer wg.Done()
			<-sg
			for j := numSamplePerWorker; j > 0; j-- {
				sec, nsec := clk.Boottime()
				hostTime := timemath.Nanoseconds(sec, nsec)
				hubShort := h.shortTimestamp(hostTime)

				t0 := time.Now()
				recovered := cs.Recover(hubShort, hostTime)
				_ = cs.Compensate(recovered, hostTime, true)

				err := hg.RecordValue(time.Since(t0).Nanoseconds())
				if err != nil {
					log.Printf("Failed to record histogram value: %v", err)
					return
				}
			}
			mu.Lock()
			defer mu.Unlock()
			hg.PercentilesPrint(os.Stdout, 1, 1.0)
		}()
	}
	t0 := time.Now()
	close(sg)
	wg.Wait()
	log.Print(time.Since(t0))
}
