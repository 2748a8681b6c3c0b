package hub_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"periph.io/x/conn/v3/i2c/i2ctest"

	"example.com/sensorhub-time/driver/hub"
)

const hubAddr = 0x43

func TestRequestElapsedTime(t *testing.T) {
	reg := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: hubAddr, W: []byte{0x32}, R: reg},
		},
		DontPanic: true,
	}
	dev := hub.NewDevice(zap.NewNop(), bus, hubAddr)

	got, err := dev.RequestElapsedTime(context.Background())
	if err != nil {
		t.Fatalf("RequestElapsedTime() failed: %v", err)
	}
	if len(got) != 8 {
		t.Fatalf("RequestElapsedTime() returned %d bytes, want 8", len(got))
	}
	for i := range reg {
		if got[i] != reg[i] {
			t.Fatalf("RequestElapsedTime() = %#v, want %#v", got, reg)
		}
	}
}

func TestRequestShortTimestamp(t *testing.T) {
	tests := []struct {
		name string
		reg  []byte
		want uint32
	}{
		{"zero", []byte{0x00, 0x00, 0x00}, 0},
		{"one", []byte{0x00, 0x00, 0x01}, 1},
		{"mixed", []byte{0x01, 0x02, 0x03}, 0x010203},
		{"max", []byte{0xFF, 0xFF, 0xFF}, 0xFFFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &i2ctest.Playback{
				Ops: []i2ctest.IO{
					{Addr: hubAddr, W: []byte{0x33}, R: tt.reg},
				},
				DontPanic: true,
			}
			dev := hub.NewDevice(zap.NewNop(), bus, hubAddr)

			got, err := dev.RequestShortTimestamp(context.Background())
			if err != nil {
				t.Fatalf("RequestShortTimestamp() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("RequestShortTimestamp() = %#x, want %#x", got, tt.want)
			}
		})
	}
}
