package internaldefs

import (
	auditkit "github.com/kestrelsec/auditkit"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   auditkit.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   auditkit.MetricID
	Name string
	Help string
}

// CounterDefs maps every counter slot to its exposition name. Order is the
// render order.
var CounterDefs = []CounterDef{
	{ID: auditkit.MetricLoginSuccess, Name: "auditkit_login_success_total", Help: "Successful logins."},
	{ID: auditkit.MetricLoginFailure, Name: "auditkit_login_failure_total", Help: "Rejected or failed login attempts."},
	{ID: auditkit.MetricLogout, Name: "auditkit_logout_total", Help: "Logout operations, server-acknowledged or not."},
	{ID: auditkit.MetricSessionResumed, Name: "auditkit_session_resumed_total", Help: "Startups that revalidated a persisted credential."},
	{ID: auditkit.MetricSessionExpired, Name: "auditkit_session_expired_total", Help: "Sessions torn down by a 401 response."},
	{ID: auditkit.MetricRequestTransient, Name: "auditkit_request_transient_total", Help: "Requests answered with a 5xx status."},
	{ID: auditkit.MetricRequestRejected, Name: "auditkit_request_rejected_total", Help: "Requests answered with a non-401 4xx status."},
	{ID: auditkit.MetricRequestNetwork, Name: "auditkit_request_network_total", Help: "Requests that got no response at all."},
	{ID: auditkit.MetricJobSubmitted, Name: "auditkit_job_submitted_total", Help: "Accepted import and export submissions."},
	{ID: auditkit.MetricJobSubmitFailed, Name: "auditkit_job_submit_failed_total", Help: "Submissions rejected before a job existed."},
	{ID: auditkit.MetricJobRefreshed, Name: "auditkit_job_refreshed_total", Help: "Job refreshes applied to the local mirror."},
	{ID: auditkit.MetricJobRefreshStale, Name: "auditkit_job_refresh_stale_total", Help: "Refresh responses discarded for arriving out of issuance order."},
	{ID: auditkit.MetricJobDeleted, Name: "auditkit_job_deleted_total", Help: "Deleted job records."},
	{ID: auditkit.MetricExportDownloaded, Name: "auditkit_export_downloaded_total", Help: "Downloaded export artifacts."},
}

// HistogramDefs maps every histogram slot to its exposition name.
var HistogramDefs = []HistogramDef{
	{ID: auditkit.MetricRequestLatency, Name: "auditkit_request_latency_seconds", Help: "Request round-trip latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, matching the core
// histogram's millisecond buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix gives each bound an instrument-name-safe suffix.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
