package timemath_test

import (
	"testing"

	"example.com/sensorhub-time/base/timemath"
)

func TestNanoseconds(t *testing.T) {
	tests := []struct {
		sec  int64
		nsec int64
		want int64
	}{
		{0, 0, 0},
		{0, 1, 1},
		{1, 0, 1_000_000_000},
		{1, 500_000_000, 1_500_000_000},
		{3600, 999_999_999, 3_600_999_999_999},
	}

	for _, tt := range tests {
		got := timemath.Nanoseconds(tt.sec, tt.nsec)
		if got != tt.want {
			t.Errorf("timemath.Nanoseconds(%v, %v) = %v, want %v", tt.sec, tt.nsec, got, tt.want)
		}
	}
}

func TestMicroseconds(t *testing.T) {
	tests := []struct {
		nsec int64
		want int64
	}{
		{0, 0},
		{999, 0},
		{1000, 1},
		{1500, 1},
		{-1500, -1},
		{1_000_000_000, 1_000_000},
	}

	for _, tt := range tests {
		got := timemath.Microseconds(tt.nsec)
		if got != tt.want {
			t.Errorf("timemath.Microseconds(%v) = %v, want %v", tt.nsec, got, tt.want)
		}
	}
}
