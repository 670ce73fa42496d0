// Package analysis implements the one-to-many processor (§4.I): the
// pipeline that turns an origin point into a travel-time PNG and access
// histogram by combining a street search, a transit search, and the
// sparse egress table.
package analysis

// Unreached marks a duration as not reached, matching street.MaxSeconds.
const Unreached = 7200

// Durations is the per-cell min/avg/max travel-time record produced by
// propagation (§3 "Durations").
type Durations struct {
	Min, Avg, Max int32
}

// Unset is the zero value's semantic opposite: every field carries
// Unreached rather than Go's int32 zero, since 0 seconds is a valid
// (instantaneous) travel time.
func Unset() Durations {
	return Durations{Min: Unreached, Avg: Unreached, Max: Unreached}
}

// MinMerge combines two Durations by taking the elementwise minimum,
// commutative and idempotent (§8 invariant 5: merge(a,a)=a,
// merge(a,b)=merge(b,a)). Both arguments are values and MinMerge is total;
// a zero-value Durations means 0 seconds and wins every field, so an
// unreached operand is represented by Unset().
func MinMerge(a, b Durations) Durations {
	return Durations{
		Min: minInt32(a.Min, b.Min),
		Avg: minInt32(a.Avg, b.Avg),
		Max: minInt32(a.Max, b.Max),
	}
}

func minInt32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

// Minutes converts a duration in seconds to whole minutes, clamped to
// [0, 120], with Unreached/over-cap mapping to 255 as the PNG sentinel
// (§6 "PNG raster (one-to-many output)").
func Minutes(sec int32) uint8 {
	if sec >= Unreached {
		return 255
	}
	m := sec / 60
	if m < 0 {
		m = 0
	}
	if m > 120 {
		return 255
	}
	return uint8(m)
}
