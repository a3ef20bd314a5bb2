package api

// HealthMetrics mirrors the gateway /nodehealth response.
type HealthMetrics struct {
	Status  string `json:"status"`
	Metrics struct {
		UptimeSeconds   int64   `json:"uptime_seconds"`
		CPULoadPercent  float64 `json:"cpu_load_percent"`
		MemoryMB        float64 `json:"memory_mb"`
		DiskFreeMB      float64 `json:"disk_free_mb"`
		RequestCount    int64   `json:"request_count"`
		ErrorCount      int64   `json:"error_count"`
		PendingSessions int     `json:"pending_sessions"`
		StoreReachable  bool    `json:"store_reachable"`
	} `json:"metrics"`
}

func GetHealthMetrics() (HealthMetrics, error) {
	var data HealthMetrics
	if err := getJSON("/nodehealth", &data); err != nil {
		return HealthMetrics{}, err
	}
	return data, nil
}

func GetLiveness() (bool, error) {
	var result struct {
		Alive bool `json:"alive"`
	}
	if err := getJSON("/health/liveness", &result); err != nil {
		return false, err
	}
	return result.Alive, nil
}

func GetReadiness() (bool, error) {
	var result struct {
		Ready bool `json:"ready"`
	}
	if err := getJSON("/health/readiness", &result); err != nil {
		return false, err
	}
	return result.Ready, nil
}
