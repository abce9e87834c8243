package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kestrelsec/auditkit/internal/metrics"
	"github.com/kestrelsec/auditkit/internal/notify"
	"github.com/kestrelsec/auditkit/session"
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// Options configures a Gateway.
type Options struct {
	// BaseURL is the collaborator API root, e.g. "https://audit.example.com".
	BaseURL string
	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
	// Sessions supplies the credential and is cleared on 401.
	Sessions *session.Store
	// Notifier receives globally surfaced failures; nil disables notification.
	Notifier *notify.Dispatcher
	// Metrics receives counters; nil disables them.
	Metrics *metrics.Metrics
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// OnSessionExpired is the forced-navigation hook fired after a 401
	// teardown. Optional.
	OnSessionExpired func()
}

// Gateway wraps all outbound calls. Safe for concurrent use.
type Gateway struct {
	base             *url.URL
	client           *http.Client
	sessions         *session.Store
	notifier         *notify.Dispatcher
	metrics          *metrics.Metrics
	logger           *slog.Logger
	onSessionExpired func()
}

// New validates the options and builds a Gateway.
func New(opts Options) (*Gateway, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("gateway: base URL required")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("gateway: parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("gateway: unsupported scheme %q", base.Scheme)
	}
	if opts.Sessions == nil {
		return nil, errors.New("gateway: session store required")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Gateway{
		base:             base,
		client:           client,
		sessions:         opts.Sessions,
		notifier:         opts.Notifier,
		metrics:          opts.Metrics,
		logger:           logger,
		onSessionExpired: opts.OnSessionExpired,
	}, nil
}

// Multipart describes a file upload plus accompanying form fields.
type Multipart struct {
	FileField string
	Filename  string
	File      io.Reader
	Fields    map[string]string
}

// Request describes one outbound call.
type Request struct {
	Method string
	Path   string
	Query  url.Values

	// Body is JSON-encoded when non-nil. Mutually exclusive with Multipart.
	Body      any
	Multipart *Multipart

	// Out, when non-nil, receives the decoded 2xx JSON response.
	Out any

	// FormScoped suppresses the global side effects of classification: no
	// notification, no session teardown. Used by the login form so its
	// failures stay inline.
	FormScoped bool

	// Credential overrides the session store's credential for this call.
	// The bootstrap sequence uses it to validate a persisted credential
	// before anything is installed.
	Credential *session.Credential
}

// Do executes the request and classifies the outcome. A nil return means a
// 2xx response (decoded into req.Out when set). Every non-nil error is one of
// ErrSessionExpired, *TransientError, *ValidationError, or *NetworkError.
func (g *Gateway) Do(ctx context.Context, req Request) error {
	httpReq, requestID, err := g.build(ctx, req)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	g.metrics.Observe(metrics.MetricRequestLatency, time.Since(start))
	if err != nil {
		return g.failNetwork(ctx, req, requestID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if req.Out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(req.Out); err != nil {
			// A 2xx with an undecodable body is a server fault, not a
			// caller mistake.
			return g.failTransient(ctx, req, requestID, resp.StatusCode)
		}
		return nil
	}

	return g.classify(ctx, req, requestID, resp)
}

// DownloadInfo carries artifact metadata taken from response headers.
type DownloadInfo struct {
	Filename string
	Size     int64
}

// Download performs a GET for a binary payload. The caller owns the returned
// body and must close it. Failures classify exactly like Do.
func (g *Gateway) Download(ctx context.Context, path string) (io.ReadCloser, DownloadInfo, error) {
	httpReq, requestID, err := g.build(ctx, Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, DownloadInfo{}, err
	}

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	g.metrics.Observe(metrics.MetricRequestLatency, time.Since(start))
	if err != nil {
		return nil, DownloadInfo{}, g.failNetwork(ctx, Request{Path: path}, requestID, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		info := DownloadInfo{Size: resp.ContentLength}
		if cd := resp.Header.Get("Content-Disposition"); cd != "" {
			if _, params, err := mime.ParseMediaType(cd); err == nil {
				info.Filename = params["filename"]
			}
		}
		return resp.Body, info, nil
	}

	defer resp.Body.Close()
	return nil, DownloadInfo{}, g.classify(ctx, Request{Path: path}, requestID, resp)
}

func (g *Gateway) build(ctx context.Context, req Request) (*http.Request, string, error) {
	target := g.base.JoinPath(req.Path)
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.Multipart != nil:
		buf := &bytes.Buffer{}
		w := multipart.NewWriter(buf)
		for k, v := range req.Multipart.Fields {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", fmt.Errorf("gateway: encode form field: %w", err)
			}
		}
		part, err := w.CreateFormFile(req.Multipart.FileField, req.Multipart.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("gateway: create form file: %w", err)
		}
		if _, err := io.Copy(part, req.Multipart.File); err != nil {
			return nil, "", fmt.Errorf("gateway: copy upload: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, "", fmt.Errorf("gateway: finish multipart: %w", err)
		}
		body = buf
		contentType = w.FormDataContentType()
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", fmt.Errorf("gateway: encode body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, "", fmt.Errorf("gateway: build request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("X-Request-ID", requestID)
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	cred := req.Credential
	if cred == nil {
		if c, ok := g.sessions.Credential(); ok {
			cred = &c
		}
	}
	if cred != nil && cred.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+cred.Token)
	}

	return httpReq, requestID, nil
}

func (g *Gateway) classify(ctx context.Context, req Request, requestID string, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized && !req.FormScoped:
		g.metrics.Inc(metrics.MetricSessionExpired)
		g.logger.Warn("credential rejected, clearing session",
			slog.String("path", req.Path),
			slog.String("request_id", requestID))
		g.sessions.Clear()
		g.notifier.Emit(ctx, notify.KindSessionExpired, "", requestID, req.Path)
		if g.onSessionExpired != nil {
			g.onSessionExpired()
		}
		return ErrSessionExpired

	case resp.StatusCode >= 500:
		return g.failTransient(ctx, req, requestID, resp.StatusCode)

	default:
		message := readServerMessage(resp)
		g.metrics.Inc(metrics.MetricRequestRejected)
		if !req.FormScoped {
			g.notifier.Emit(ctx, notify.KindRejected, message, requestID, req.Path)
		}
		return &ValidationError{
			Status:    resp.StatusCode,
			Message:   message,
			RequestID: requestID,
		}
	}
}

func (g *Gateway) failTransient(ctx context.Context, req Request, requestID string, status int) error {
	g.metrics.Inc(metrics.MetricRequestTransient)
	g.logger.Warn("transient server failure",
		slog.String("path", req.Path),
		slog.Int("status", status),
		slog.String("request_id", requestID))
	if !req.FormScoped {
		g.notifier.Emit(ctx, notify.KindTransient, "", requestID, req.Path)
	}
	return &TransientError{Status: status, RequestID: requestID}
}

func (g *Gateway) failNetwork(ctx context.Context, req Request, requestID string, err error) error {
	g.metrics.Inc(metrics.MetricRequestNetwork)
	g.logger.Warn("request got no response",
		slog.String("path", req.Path),
		slog.String("request_id", requestID),
		slog.Any("error", err))
	if !req.FormScoped {
		g.notifier.Emit(ctx, notify.KindNetwork, "", requestID, req.Path)
	}
	return &NetworkError{Err: err}
}

// readServerMessage extracts the {"error": "..."} body of a rejected request,
// falling back to the raw body or the status text.
func readServerMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(data) > 0 {
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			return payload.Error
		}
		if text := strings.TrimSpace(string(data)); text != "" && !strings.HasPrefix(text, "{") {
			return text
		}
	}
	return http.StatusText(resp.StatusCode)
}
