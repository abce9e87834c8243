package auditkit

import "github.com/kestrelsec/auditkit/internal/metrics"

// MetricID identifies one counter or histogram slot in the client's
// in-process metrics.
type MetricID = metrics.MetricID

// Metric slots, re-exported for the metrics/export packages and for direct
// snapshot inspection.
const (
	MetricLoginSuccess      = metrics.MetricLoginSuccess
	MetricLoginFailure      = metrics.MetricLoginFailure
	MetricLogout            = metrics.MetricLogout
	MetricSessionResumed    = metrics.MetricSessionResumed
	MetricSessionExpired    = metrics.MetricSessionExpired
	MetricRequestTransient  = metrics.MetricRequestTransient
	MetricRequestRejected   = metrics.MetricRequestRejected
	MetricRequestNetwork    = metrics.MetricRequestNetwork
	MetricJobSubmitted      = metrics.MetricJobSubmitted
	MetricJobSubmitFailed   = metrics.MetricJobSubmitFailed
	MetricJobRefreshed      = metrics.MetricJobRefreshed
	MetricJobRefreshStale   = metrics.MetricJobRefreshStale
	MetricJobDeleted        = metrics.MetricJobDeleted
	MetricExportDownloaded  = metrics.MetricExportDownloaded
	MetricRequestLatency    = metrics.MetricRequestLatency
)
