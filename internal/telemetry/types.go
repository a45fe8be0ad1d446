// Package telemetry defines the samples exchanged between producers, the
// engine and the display.
package telemetry

import "slices"

// NetworkSample holds cumulative interface byte counters.
type NetworkSample struct {
	TxBytes int64 `json:"tx_bytes"`
	RxBytes int64 `json:"rx_bytes"`
}

// CPUUsage contains CPU utilization in percent.
type CPUUsage struct {
	Avg     float32   `json:"avg"`
	PerCore []float32 `json:"detailed"`
}

// MemInfo contains memory and swap usage in KiB.
type MemInfo struct {
	UsedMem   uint64 `json:"used_mem"`
	TotalMem  uint64 `json:"total_mem"`
	UsedSwap  uint64 `json:"used_swap"`
	TotalSwap uint64 `json:"total_swap"`
}

// MemPercent returns used memory as a percentage of total.
func (m MemInfo) MemPercent() float64 {
	if m.TotalMem == 0 {
		return 0
	}
	return float64(m.UsedMem) / float64(m.TotalMem) * 100
}

// SwapPercent returns used swap as a percentage of total.
func (m MemInfo) SwapPercent() float64 {
	if m.TotalSwap == 0 {
		return 0
	}
	return float64(m.UsedSwap) / float64(m.TotalSwap) * 100
}

// SystemSnapshot is one CPU and memory sample from a host.
type SystemSnapshot struct {
	CPU CPUUsage `json:"cpu"`
	Mem MemInfo  `json:"mem"`
}

// Clone returns a deep copy.
func (s SystemSnapshot) Clone() SystemSnapshot {
	s.CPU.PerCore = slices.Clone(s.CPU.PerCore)
	return s
}

// AnnotatedSnapshot tags a snapshot with the source that produced it.
// A nil Snapshot reports a failed poll for that source.
type AnnotatedSnapshot struct {
	Source   string
	Snapshot *SystemSnapshot
}

// Throughput is the per-second transfer rate derived from two network
// samples.
type Throughput struct {
	TxPerSec int64
	RxPerSec int64
}
