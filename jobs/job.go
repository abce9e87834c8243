package jobs

import "time"

// Kind separates the two job families. They share the lifecycle but live
// under different API collections.
type Kind string

const (
	KindImport Kind = "import"
	KindExport Kind = "export"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindImport || k == KindExport
}

// Status is the server-assigned lifecycle state of a job. Transitions only
// move forward: queued, processing, then exactly one of completed or failed.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// rank orders statuses along the lifecycle. Both terminal states share the
// top rank so neither can overwrite the other.
func (s Status) rank() int {
	switch s {
	case StatusQueued:
		return 0
	case StatusProcessing:
		return 1
	case StatusCompleted, StatusFailed:
		return 2
	}
	return -1
}

// Terminal reports whether the job can no longer change.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Artifact is the downloadable result of a completed export. Filename and
// size are authoritative server metadata, never derived client-side.
type Artifact struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Format   string `json:"format"`
}

// Job mirrors one server-side import or export job.
type Job struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Domain    string    `json:"domain"`
	Format    string    `json:"format"`
	Status    Status    `json:"status"`
	Processed int       `json:"processed"`
	Total     int       `json:"total"`

	// Per-record outcome counts, populated for imports. A completed import
	// may still carry a non-zero ErrorCount: completion means the run
	// finished, not that every record was accepted.
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`

	CreatedAt time.Time `json:"created_at"`

	// Artifact is set once an export completes.
	Artifact *Artifact `json:"artifact,omitempty"`
}
