package data

import "time"

// Dates are stored as integer nanoseconds since the Unix epoch, UTC. The
// conversion lives at the data-access boundary only; everything above it
// works with time.Time values.

func TimeToDB(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func TimeFromDB(nanos int64) time.Time {
	return time.Unix(0, nanos).UTC()
}
