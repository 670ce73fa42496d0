package sparsetile

import (
	"runtime"

	"go.uber.org/zap"
)

// DefaultMemoryPressurePercent is the fraction of total RAM at which a
// disk-backed array starts spilling tiles to disk. 0.90 = 90%.
const DefaultMemoryPressurePercent = 0.90

// ComputeMemoryLimit returns the maximum bytes a disk-backed array should
// hold in memory before spilling, as a fraction of total system RAM minus
// current heap overhead and a fixed headroom. Returns 0 (no limit) if RAM
// detection fails or the computed limit is unreasonably small.
func ComputeMemoryLimit(fraction float64, log *zap.SugaredLogger) int64 {
	log = nopIfNil(log)

	totalRAM, err := totalSystemRAM()
	if err != nil {
		log.Debugw("cannot detect system RAM, disk spilling disabled", "error", err)
		return 0
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	overhead := m.Sys + 2*1024*1024*1024 // current usage + 2 GB headroom

	limit := int64(float64(totalRAM)*fraction) - int64(overhead)
	if limit < 512*1024*1024 {
		log.Debugw("computed memory limit too small, disk spilling disabled",
			"limitBytes", limit)
		return 0
	}

	log.Debugw("disk-backed array memory limit",
		"limitBytes", limit, "fraction", fraction, "totalRAM", totalRAM)
	return limit
}

func nopIfNil(log *zap.SugaredLogger) *zap.SugaredLogger {
	if log == nil {
		return zap.NewNop().Sugar()
	}
	return log
}
