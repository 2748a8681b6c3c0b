// Driver for the sensor hub's time registers, attached via I2C.

package hub

import (
	"context"

	"go.uber.org/zap"

	"periph.io/x/conn/v3/driver/driverreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"

	"example.com/sensorhub-time/core/sync"
)

// Command registers. ELAPSED_RT holds the 8-byte elapsed real time latched
// at the last wake line edge; SAMPLE_TS holds the 3-byte truncated timestamp
// of the most recent sample.
const (
	regElapsedRealtime = 0x32
	regSampleTimestamp = 0x33
)

const (
	elapsedTimeLen    = 8
	shortTimestampLen = 3
)

// Device is a sensor hub reached over an I2C bus.
type Device struct {
	log *zap.Logger
	dev *i2c.Dev
	bus i2c.BusCloser
}

var _ sync.HubTransport = (*Device)(nil)
var _ sync.SampleSource = (*Device)(nil)

// Open attaches to the hub on the named I2C bus, e.g. "/dev/i2c-1" or "1".
func Open(log *zap.Logger, busName string, addr uint16) (*Device, error) {
	if _, err := driverreg.Init(); err != nil {
		return nil, err
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, err
	}
	return &Device{
		log: log,
		dev: &i2c.Dev{Addr: addr, Bus: bus},
		bus: bus,
	}, nil
}

// NewDevice wraps an already opened bus. Open is the usual entry point; the
// device does not own a bus passed in here.
func NewDevice(log *zap.Logger, bus i2c.Bus, addr uint16) *Device {
	return &Device{
		log: log,
		dev: &i2c.Dev{Addr: addr, Bus: bus},
	}
}

func (d *Device) Close() error {
	if d.bus == nil {
		return nil
	}
	return d.bus.Close()
}

func (d *Device) readRegister(ctx context.Context, reg byte, n int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := d.dev.Tx([]byte{reg}, buf); err != nil {
		d.log.Error("i2c transaction failed",
			zap.Uint8("register", reg), zap.Error(err))
		return nil, err
	}
	return buf, nil
}

// RequestElapsedTime reads the hub's latched elapsed-time register: 8 bytes,
// big endian, in microseconds since hub boot.
func (d *Device) RequestElapsedTime(ctx context.Context) ([]byte, error) {
	return d.readRegister(ctx, regElapsedRealtime, elapsedTimeLen)
}

// RequestShortTimestamp reads the truncated timestamp of the most recent
// sample, in 16 microsecond units.
func (d *Device) RequestShortTimestamp(ctx context.Context) (uint32, error) {
	buf, err := d.readRegister(ctx, regSampleTimestamp, shortTimestampLen)
	if err != nil {
		return 0, err
	}
	return decodeShortTimestamp(buf), nil
}

func decodeShortTimestamp(buf []byte) uint32 {
	return uint32(buf[0])<<16 | uint32(buf[1])<<8 | uint32(buf[2])
}
