package timebase

// A BootClock reads the host's boot-relative monotonic clock.
type BootClock interface {
	Boottime() (sec, nsec int64)
}
