package timemath

// Nanoseconds combines a seconds/nanoseconds clock reading into a single
// nanosecond value.
func Nanoseconds(sec, nsec int64) int64 {
	return sec*1e9 + nsec
}

// Microseconds converts nanoseconds to microseconds, truncating toward zero.
func Microseconds(nsec int64) int64 {
	return nsec / 1e3
}
