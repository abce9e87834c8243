package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/kestrelsec/auditkit/gateway"
	"github.com/kestrelsec/auditkit/internal/metrics"
)

var (
	// ErrJobNotFound means the id is not in the local mirror. Refresh or
	// List first.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobProcessing refuses deletion of a job the server is still
	// working on. Wait for a terminal state.
	ErrJobProcessing = errors.New("job is processing")

	// ErrNoArtifact means the job has no downloadable result, either
	// because it is an import or because it has not completed.
	ErrNoArtifact = errors.New("job has no artifact")
)

var validate = validator.New()

// refreshTimeout bounds a shared refresh request, which is detached from the
// initiating caller's context so that one caller's cancellation cannot fail
// the collapsed callers riding the same flight.
const refreshTimeout = 30 * time.Second

// ImportRequest describes a file to upload for server-side ingestion.
type ImportRequest struct {
	Domain   string `validate:"required"`
	Format   string `validate:"required"`
	Filename string `validate:"required"`
	Data     io.Reader
}

// ExportRequest asks the server to produce a downloadable artifact.
type ExportRequest struct {
	Name   string `json:"name" validate:"required"`
	Domain string `json:"domain" validate:"required"`
	Format string `json:"format" validate:"required"`
}

// entry pairs a mirrored job with the sequence number of the request that
// wrote it. Sequence numbers are allocated when a request is issued, so a
// slow response carries an old number and loses against anything newer.
type entry struct {
	job Job
	seq uint64
}

// Tracker maintains a local mirror of the caller's import and export jobs.
// All state changes come from explicit calls; there is no background polling.
// Safe for concurrent use.
type Tracker struct {
	gw      *gateway.Gateway
	metrics *metrics.Metrics
	logger  *slog.Logger

	seq    atomic.Uint64
	flight singleflight.Group

	mu     sync.Mutex
	mirror map[string]*entry
}

// NewTracker builds a Tracker on top of the request gateway. Metrics may be
// nil; logger defaults to slog.Default().
func NewTracker(gw *gateway.Gateway, m *metrics.Metrics, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		gw:      gw,
		metrics: m,
		logger:  logger,
		mirror:  make(map[string]*entry),
	}
}

func collectionPath(kind Kind) string {
	if kind == KindImport {
		return "/v1/imports"
	}
	return "/v1/exports"
}

// SubmitImport uploads the file and mirrors the returned job. A rejected
// submission surfaces as a gateway-classified error; it never produces a
// job in the failed state.
func (t *Tracker) SubmitImport(ctx context.Context, req ImportRequest) (Job, error) {
	if err := validate.Struct(req); err != nil {
		return Job{}, fmt.Errorf("import request: %w", err)
	}
	if req.Data == nil {
		return Job{}, errors.New("import request: no data")
	}

	var job Job
	err := t.gw.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   collectionPath(KindImport),
		Multipart: &gateway.Multipart{
			FileField: "file",
			Filename:  req.Filename,
			File:      req.Data,
			Fields: map[string]string{
				"domain": req.Domain,
				"format": req.Format,
			},
		},
		Out: &job,
	})
	if err != nil {
		t.metrics.Inc(metrics.MetricJobSubmitFailed)
		return Job{}, err
	}

	t.metrics.Inc(metrics.MetricJobSubmitted)
	t.apply(job, t.seq.Add(1))
	return job, nil
}

// SubmitExport requests a new export job and mirrors it.
func (t *Tracker) SubmitExport(ctx context.Context, req ExportRequest) (Job, error) {
	if err := validate.Struct(req); err != nil {
		return Job{}, fmt.Errorf("export request: %w", err)
	}

	var job Job
	err := t.gw.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   collectionPath(KindExport),
		Body:   req,
		Out:    &job,
	})
	if err != nil {
		t.metrics.Inc(metrics.MetricJobSubmitFailed)
		return Job{}, err
	}

	t.metrics.Inc(metrics.MetricJobSubmitted)
	t.apply(job, t.seq.Add(1))
	return job, nil
}

// List fetches every job of the given kind and folds the result into the
// mirror. The returned slice reflects the mirror after the merge, newest
// first.
func (t *Tracker) List(ctx context.Context, kind Kind) ([]Job, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown job kind %q", kind)
	}

	seq := t.seq.Add(1)
	var fetched []Job
	err := t.gw.Do(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   collectionPath(kind),
		Out:    &fetched,
	})
	if err != nil {
		return nil, err
	}

	for _, job := range fetched {
		t.apply(job, seq)
	}
	return t.Cached(kind), nil
}

// Refresh re-fetches one job. Concurrent refreshes of the same job share a
// single request, and a response issued before a newer write can never roll
// the mirror back. The returned job is the mirror's state after the merge,
// which may be newer than what this particular response carried.
func (t *Tracker) Refresh(ctx context.Context, kind Kind, id string) (Job, error) {
	if !kind.Valid() {
		return Job{}, fmt.Errorf("unknown job kind %q", kind)
	}

	v, err, _ := t.flight.Do(string(kind)+"/"+id, func() (any, error) {
		// The flight is shared by every concurrent caller, so it must not
		// inherit any single caller's cancellation.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		seq := t.seq.Add(1)
		var job Job
		err := t.gw.Do(ctx, gateway.Request{
			Method: http.MethodGet,
			Path:   collectionPath(kind) + "/" + id,
			Out:    &job,
		})
		if err != nil {
			return Job{}, err
		}
		t.metrics.Inc(metrics.MetricJobRefreshed)
		return t.apply(job, seq), nil
	})
	if err != nil {
		return Job{}, err
	}
	return v.(Job), nil
}

// Delete removes a job. Jobs the server is still processing are refused
// locally with ErrJobProcessing; everything else is forwarded to the server
// and dropped from the mirror on success.
func (t *Tracker) Delete(ctx context.Context, kind Kind, id string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown job kind %q", kind)
	}

	t.mu.Lock()
	if e, ok := t.mirror[id]; ok && e.job.Status == StatusProcessing {
		t.mu.Unlock()
		return ErrJobProcessing
	}
	t.mu.Unlock()

	err := t.gw.Do(ctx, gateway.Request{
		Method: http.MethodDelete,
		Path:   collectionPath(kind) + "/" + id,
	})
	if err != nil {
		return err
	}

	t.mu.Lock()
	delete(t.mirror, id)
	t.mu.Unlock()

	t.metrics.Inc(metrics.MetricJobDeleted)
	return nil
}

// Download streams the artifact of a completed export. Filename and size
// come from the job's artifact metadata; the caller must close the body.
func (t *Tracker) Download(ctx context.Context, id string) (io.ReadCloser, Artifact, error) {
	t.mu.Lock()
	e, ok := t.mirror[id]
	t.mu.Unlock()
	if !ok {
		return nil, Artifact{}, ErrJobNotFound
	}
	if e.job.Kind != KindExport || e.job.Status != StatusCompleted || e.job.Artifact == nil {
		return nil, Artifact{}, ErrNoArtifact
	}
	artifact := *e.job.Artifact

	body, _, err := t.gw.Download(ctx, collectionPath(KindExport)+"/"+id+"/download")
	if err != nil {
		return nil, Artifact{}, err
	}

	t.metrics.Inc(metrics.MetricExportDownloaded)
	return body, artifact, nil
}

// Get returns the mirrored job without touching the network.
func (t *Tracker) Get(id string) (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.mirror[id]; ok {
		return e.job, true
	}
	return Job{}, false
}

// Cached returns the mirrored jobs of one kind, newest first.
func (t *Tracker) Cached(kind Kind) []Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Job, 0, len(t.mirror))
	for _, e := range t.mirror {
		if e.job.Kind == kind {
			out = append(out, e.job)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// apply merges one fetched job into the mirror and returns the mirror's
// resulting state. Three guards keep the mirror consistent under interleaved
// responses: an entry written by a later-issued request wins over an
// earlier-issued one, status never moves backward along the lifecycle, and a
// terminal job is frozen entirely, counters included.
func (t *Tracker) apply(job Job, seq uint64) Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.mirror[job.ID]
	if !ok {
		t.mirror[job.ID] = &entry{job: job, seq: seq}
		return job
	}

	if seq < e.seq || job.Status.rank() < e.job.Status.rank() || e.job.Status.Terminal() {
		t.metrics.Inc(metrics.MetricJobRefreshStale)
		t.logger.Debug("dropping stale job update",
			slog.String("job_id", job.ID),
			slog.String("mirror_status", string(e.job.Status)),
			slog.String("stale_status", string(job.Status)))
		return e.job
	}

	e.job = job
	e.seq = seq
	return job
}
