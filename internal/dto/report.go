package dto

import "time"

type Mover struct {
	Ticker        string  `json:"ticker"`
	Name          string  `json:"name"`
	Close         float64 `json:"close"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`
}

type DailyReport struct {
	Date        string       `json:"date"`
	TopGainers  []Mover      `json:"top_gainers"`
	TopLosers   []Mover      `json:"top_losers"`
	Narrative   *LLMAnalysis `json:"narrative,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
}

type UsageStatsResponse struct {
	Days         int             `json:"days"`
	TotalQueries int64           `json:"total_queries"`
	CacheHits    int64           `json:"cache_hits"`
	HitRatio     float64         `json:"hit_ratio"`
	Daily        []DailyUsage    `json:"daily"`
	Providers    []ProviderUsage `json:"providers"`
}

type DailyUsage struct {
	Day          string  `json:"day"`
	Kind         string  `json:"kind"`
	TotalQueries int64   `json:"total_queries"`
	CacheHits    int64   `json:"cache_hits"`
	Failures     int64   `json:"failures"`
	HitRatio     float64 `json:"hit_ratio"`
	AvgResponse  float64 `json:"avg_response_ms"`
}

type ProviderUsage struct {
	Provider string  `json:"provider"`
	Calls    int64   `json:"calls"`
	Failures int64   `json:"failures"`
	AvgMs    float64 `json:"avg_latency_ms"`
	Tokens   int64   `json:"tokens"`
}

type HealthResponse struct {
	Status      string            `json:"status"`
	Checks      map[string]string `json:"checks"`
	LLMProvider string            `json:"llm_provider"`
	Timestamp   time.Time         `json:"timestamp"`
}

const (
	HealthStatusHealthy  = "healthy"
	HealthStatusDegraded = "degraded"
	CheckOK              = "ok"
	CheckDisabled        = "disabled"
	CheckMissing         = "missing"
	CheckUnreachable     = "unreachable"
)

type JobRunResponse struct {
	JobID    uint   `json:"job_id"`
	JobName  string `json:"job_name"`
	Status   string `json:"status"`
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
}
