package domain

import "time"

// TransferProgress is a snapshot of an in-flight transfer
type TransferProgress struct {
	BytesDone  int64
	BytesTotal int64 // 0 means unknown
	Elapsed    time.Duration
}

// Percentage returns completion in the range 0-100, or 0 when the total is unknown
func (p TransferProgress) Percentage() float64 {
	if p.BytesTotal <= 0 {
		return 0
	}
	pct := float64(p.BytesDone) / float64(p.BytesTotal) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// minThroughputWindow is the elapsed time below which no speed is reported
const minThroughputWindow = 100 * time.Millisecond

// Throughput returns the average speed in bytes per second, or 0 while
// too little time has passed to measure it
func (p TransferProgress) Throughput() float64 {
	if p.Elapsed < minThroughputWindow {
		return 0
	}
	return float64(p.BytesDone) / p.Elapsed.Seconds()
}
