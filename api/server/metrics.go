// metrics.go - Metrics collection for the medvault gateway
package server

import (
	"net/http"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// GatewayMetrics holds granular health metrics for the gateway.
type GatewayMetrics struct {
	UptimeSeconds   int64   `json:"uptime_seconds"`
	CPULoadPercent  float64 `json:"cpu_load_percent"`
	MemoryMB        float64 `json:"memory_mb"`
	DiskFreeMB      float64 `json:"disk_free_mb"`
	RequestCount    int64   `json:"request_count"`
	ErrorCount      int64   `json:"error_count"`
	PendingSessions int     `json:"pending_sessions"`
	StoreReachable  bool    `json:"store_reachable"`
}

// Track server start time for uptime calculation
var startTime = time.Now()

var requestCount int64
var errorCount int64

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// countRequests tracks request and error totals for /nodehealth.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requestCount, 1)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if rec.status >= 500 {
			atomic.AddInt64(&errorCount, 1)
		}
	})
}

// GetGatewayMetrics returns current health metrics for the gateway.
func (s *Server) GetGatewayMetrics() GatewayMetrics {
	// Uptime
	uptime := int64(time.Since(startTime).Seconds())

	// Memory usage
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	memoryMB := float64(m.Alloc) / (1024 * 1024)

	// Disk usage (root partition)
	var disk syscall.Statfs_t
	diskFreeMB := 0.0
	if err := syscall.Statfs("/", &disk); err == nil {
		diskFreeMB = float64(disk.Bfree) * float64(disk.Bsize) / (1024 * 1024)
	}

	// CPU usage: Use gopsutil to get current CPU percent
	cpuPercents, err := cpu.Percent(0, false)
	cpuLoad := 0.0
	if err == nil && len(cpuPercents) > 0 {
		cpuLoad = cpuPercents[0]
	}

	storeReachable := false
	if s.store != nil {
		// any response other than a transport error counts as reachable
		if _, err := s.store.ScanPrefix("probe:", 1); err == nil {
			storeReachable = true
		}
	}

	pendingSessionsLock.Lock()
	pending := len(pendingSessions)
	pendingSessionsLock.Unlock()

	return GatewayMetrics{
		UptimeSeconds:   uptime,
		CPULoadPercent:  cpuLoad,
		MemoryMB:        memoryMB,
		DiskFreeMB:      diskFreeMB,
		RequestCount:    atomic.LoadInt64(&requestCount),
		ErrorCount:      atomic.LoadInt64(&errorCount),
		PendingSessions: pending,
		StoreReachable:  storeReachable,
	}
}
