package metrics

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

// SystemSnapshot is a point-in-time read of host resource usage. It is
// published only as Prometheus gauges via Manager.RecordSystemSnapshot; the
// total-bytes fields are not exported.
type SystemSnapshot struct {
	CPUUsagePercent    float64 `json:"cpu_usage_percent"`
	MemoryUsedBytes    uint64  `json:"memory_used_bytes"`
	MemoryTotalBytes   uint64  `json:"memory_total_bytes"`
	MemoryUsagePercent float64 `json:"memory_usage_percent"`
	DiskUsedBytes      uint64  `json:"disk_used_bytes"`
	DiskTotalBytes     uint64  `json:"disk_total_bytes"`
	DiskUsagePercent   float64 `json:"disk_usage_percent"`
}

// SystemTracker reads host resource usage via gopsutil, scoped to the
// directory the local store's database file lives in.
type SystemTracker struct {
	dataDir string
}

// NewSystemTracker builds a SystemTracker rooted at dataDir for disk usage
// queries.
func NewSystemTracker(dataDir string) *SystemTracker {
	return &SystemTracker{dataDir: dataDir}
}

// Snapshot collects a fresh reading of CPU, memory, and disk usage.
func (t *SystemTracker) Snapshot(ctx context.Context) (SystemSnapshot, error) {
	var snap SystemSnapshot

	cpuPercents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return snap, err
	}
	if len(cpuPercents) > 0 {
		snap.CPUUsagePercent = cpuPercents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return snap, err
	}
	snap.MemoryUsedBytes = vm.Used
	snap.MemoryTotalBytes = vm.Total
	snap.MemoryUsagePercent = vm.UsedPercent

	path := t.dataDir
	if path == "" {
		path = "/"
	}
	du, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return snap, err
	}
	snap.DiskUsedBytes = du.Used
	snap.DiskTotalBytes = du.Total
	snap.DiskUsagePercent = du.UsedPercent

	return snap, nil
}

// RunSampler periodically snapshots host resource usage and publishes it
// to m, until ctx is cancelled. A failed snapshot is logged and skipped;
// it never stops the loop.
func (t *SystemTracker) RunSampler(ctx context.Context, m *Manager, interval time.Duration) {
	log := logrus.WithField("component", "system-metrics")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, err := t.Snapshot(ctx)
			if err != nil {
				log.WithError(err).Warn("system snapshot failed")
				continue
			}
			m.RecordSystemSnapshot(snap)
		}
	}
}
