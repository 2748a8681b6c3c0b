package metrics

const (
	SyncSyncsN = "hubtime_syncs_total"
	SyncSyncsH = "Number of completed hub clock handshakes"

	SyncDeltaN = "hubtime_realtime_delta_ns"
	SyncDeltaH = "Tracked host-to-hub clock delta in nanoseconds"

	SampleOffsetN = "hubtime_sample_offset_ns"
	SampleOffsetH = "Offset between host time and the last recovered sample timestamp in nanoseconds"

	SampleErrorsN = "hubtime_sample_errors_total"
	SampleErrorsH = "Number of failed hub sample timestamp reads"

	SampleNudgesN = "hubtime_drift_nudges_total"
	SampleNudgesH = "Number of drift compensation nudges by direction"
)
