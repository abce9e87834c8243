package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsec/auditkit/internal/notify"
	"github.com/kestrelsec/auditkit/permission"
	"github.com/kestrelsec/auditkit/session"
)

type fixture struct {
	gw       *Gateway
	sessions *session.Store
	sink     *notify.ChannelSink
	expired  chan struct{}
}

func newFixture(t *testing.T, handler http.Handler) *fixture {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sessions := session.NewStore()
	sink := notify.NewChannelSink(16)
	dispatcher := notify.NewDispatcher(notify.Config{Enabled: true, BufferSize: 16}, sink)
	t.Cleanup(dispatcher.Close)

	expired := make(chan struct{}, 1)
	gw, err := New(Options{
		BaseURL:  srv.URL,
		Sessions: sessions,
		Notifier: dispatcher,
		OnSessionExpired: func() {
			select {
			case expired <- struct{}{}:
			default:
			}
		},
	})
	require.NoError(t, err)

	return &fixture{gw: gw, sessions: sessions, sink: sink, expired: expired}
}

func (f *fixture) install() {
	now := time.Now()
	cred := session.Credential{Token: "tok-123", IssuedAt: now, ExpiresAt: now.Add(24 * time.Hour)}
	p := permission.NewPrincipal("u1", "Alice", "a@example.com", permission.RoleAuditor, nil, "org1")
	f.sessions.Install(cred, p)
}

func (f *fixture) waitNotification(t *testing.T) notify.Notification {
	t.Helper()
	select {
	case n := <-f.sink.Events():
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("no notification dispatched")
		return notify.Notification{}
	}
}

func TestAttachesBearerWhenCredentialPresent(t *testing.T) {
	var gotAuth, gotRequestID string
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusNoContent)
	}))
	f.install()

	require.NoError(t, f.gw.Do(context.Background(), Request{Method: http.MethodGet, Path: "/v1/imports"}))
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestSendsUnauthenticatedWithoutCredential(t *testing.T) {
	var gotAuth string
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, f.gw.Do(context.Background(), Request{Method: http.MethodGet, Path: "/v1/health"}))
	assert.Empty(t, gotAuth)
}

func TestUnauthorizedTearsDownSession(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	f.install()

	err := f.gw.Do(context.Background(), Request{Method: http.MethodGet, Path: "/v1/exports"})
	require.ErrorIs(t, err, ErrSessionExpired)

	assert.Equal(t, session.ReadinessUnauthenticated, f.sessions.Readiness())
	assert.Nil(t, f.sessions.Principal())

	n := f.waitNotification(t)
	assert.Equal(t, notify.KindSessionExpired, n.Kind)

	select {
	case <-f.expired:
	default:
		t.Fatal("forced-navigation hook did not fire")
	}
}

func TestFormScoped401LeavesSessionAlone(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
	}))
	f.install()

	err := f.gw.Do(context.Background(), Request{
		Method:     http.MethodPost,
		Path:       "/v1/auth/login",
		FormScoped: true,
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "invalid credentials", verr.Message)

	// The login form owns this failure: no teardown, no notification.
	assert.Equal(t, session.ReadinessAuthenticated, f.sessions.Readiness())
	assert.Empty(t, f.sink.Events())
	select {
	case <-f.expired:
		t.Fatal("forced-navigation hook fired for a form-scoped request")
	default:
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	f.install()

	err := f.gw.Do(context.Background(), Request{Method: http.MethodGet, Path: "/v1/imports"})

	var terr *TransientError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusBadGateway, terr.Status)
	assert.Equal(t, session.ReadinessAuthenticated, f.sessions.Readiness(), "5xx must not clear the session")
	assert.Equal(t, notify.KindTransient, f.waitNotification(t).Kind)
}

func TestClientErrorSurfacesServerMessageVerbatim(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"unsupported file format: xlsx"}`))
	}))
	f.install()

	err := f.gw.Do(context.Background(), Request{Method: http.MethodPost, Path: "/v1/imports"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "unsupported file format: xlsx", verr.Message)

	n := f.waitNotification(t)
	assert.Equal(t, notify.KindRejected, n.Kind)
	assert.Equal(t, "unsupported file format: xlsx", n.Message)
}

func TestNoResponseIsNetworkError(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	// Point the gateway at a closed port.
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	gw, err := New(Options{BaseURL: srv.URL, Sessions: f.sessions, Notifier: nil})
	require.NoError(t, err)

	err = gw.Do(context.Background(), Request{Method: http.MethodGet, Path: "/v1/imports"})
	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
}

func TestDecodesSuccessBody(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"job-7","status":"queued"}`))
	}))

	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, f.gw.Do(context.Background(), Request{Method: http.MethodGet, Path: "/v1/imports/job-7", Out: &out}))
	assert.Equal(t, "job-7", out.ID)
	assert.Equal(t, "queued", out.Status)
}

func TestMultipartUpload(t *testing.T) {
	var gotDomain, gotFile, gotFilename string
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotDomain = r.FormValue("domain")
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotFile = string(data)
		gotFilename = header.Filename
		w.WriteHeader(http.StatusCreated)
	}))
	f.install()

	err := f.gw.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/v1/imports",
		Multipart: &Multipart{
			FileField: "file",
			Filename:  "hosts.csv",
			File:      strings.NewReader("h1,h2,h3"),
			Fields:    map[string]string{"domain": "inventory"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "inventory", gotDomain)
	assert.Equal(t, "h1,h2,h3", gotFile)
	assert.Equal(t, "hosts.csv", gotFilename)
}

func TestDownloadUsesHeaderMetadata(t *testing.T) {
	payload := []byte("col1;col2\nv1;v2\n")
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="inventory-2026.csv"`)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write(payload)
	}))
	f.install()

	body, info, err := f.gw.Download(context.Background(), "/v1/exports/e1/download")
	require.NoError(t, err)
	defer body.Close()

	got, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, "inventory-2026.csv", info.Filename)
	assert.Equal(t, int64(len(payload)), info.Size)
}

func TestDownloadClassifiesFailures(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	f.install()

	_, _, err := f.gw.Download(context.Background(), "/v1/exports/e1/download")
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, session.ReadinessUnauthenticated, f.sessions.Readiness())
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{BaseURL: "", Sessions: session.NewStore()})
	require.Error(t, err)

	_, err = New(Options{BaseURL: "ftp://host", Sessions: session.NewStore()})
	require.Error(t, err)

	_, err = New(Options{BaseURL: "http://host"})
	require.Error(t, err)
}
