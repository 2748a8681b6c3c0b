// Driver for the hub wake line, the GPIO the hub latches its clock on.

package wake

import (
	"fmt"

	"go.uber.org/zap"

	"periph.io/x/conn/v3/driver/driverreg"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"example.com/sensorhub-time/core/sync"
)

// Line drives the hub wake line.
type Line struct {
	log *zap.Logger
	pin gpio.PinIO
}

var _ sync.SyncSignal = (*Line)(nil)

// Open looks up the wake line by pin name and drives it low.
func Open(log *zap.Logger, name string) (*Line, error) {
	if _, err := driverreg.Init(); err != nil {
		return nil, err
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("no GPIO pin named %q", name)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, err
	}
	log.Debug("wake line ready", zap.String("pin", pin.Name()))
	return &Line{log: log, pin: pin}, nil
}

func (l *Line) Set(active bool) error {
	return l.pin.Out(gpio.Level(active))
}
