package dto

import (
	"time"

	"github.com/construtora/agenda-api/internal/models"
)

// DiagnosticsReport is returned by the admin diagnostics endpoint.
type DiagnosticsReport struct {
	Status        string                 `json:"status"`
	Primary       string                 `json:"primario"`
	Backends      []models.BackendStatus `json:"backends"`
	PendingWrites int                    `json:"escritasPendentes"`
	Cache         CacheStatus            `json:"cache"`
	Roster        RosterCounts           `json:"equipe"`
	Build         BuildInfo              `json:"build"`
	Metrics       MetricsSnapshot        `json:"metricas"`
	GeneratedAt   time.Time              `json:"geradoEm"`
}

// CacheStatus describes the view cache.
type CacheStatus struct {
	Enabled bool   `json:"habilitado"`
	Healthy bool   `json:"saudavel"`
	Error   string `json:"erro,omitempty"`
}

// RosterCounts summarises users and departments.
type RosterCounts struct {
	ActiveUsers int `json:"usuariosAtivos"`
	Departments int `json:"departamentos"`
}

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string `json:"versao"`
	GoVersion string `json:"goVersion"`
	StartedAt string `json:"iniciadoEm"`
}

// MetricsSnapshot aggregates process counters since start.
type MetricsSnapshot struct {
	RequestsTotal            uint64  `json:"requisicoes"`
	AverageRequestDurationMs float64 `json:"duracaoMediaMs"`
	CacheHits                uint64  `json:"cacheAcertos"`
	CacheMisses              uint64  `json:"cacheFalhas"`
	CacheHitRatio            float64 `json:"cacheTaxaAcerto"`
	DegradedWrites           uint64  `json:"escritasDegradadas"`
	Goroutines               int     `json:"goroutines"`
}

// CacheClearResult reports how many cached views were dropped.
type CacheClearResult struct {
	Removed int `json:"removidos"`
}
