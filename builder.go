package auditkit

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/kestrelsec/auditkit/gateway"
	"github.com/kestrelsec/auditkit/guard"
	"github.com/kestrelsec/auditkit/internal/flows"
	"github.com/kestrelsec/auditkit/internal/metrics"
	"github.com/kestrelsec/auditkit/internal/notify"
	"github.com/kestrelsec/auditkit/jobs"
	"github.com/kestrelsec/auditkit/session"
)

// Builder assembles a Client. Configure it during initialization, call
// Build once, and treat the result as immutable.
type Builder struct {
	config Config

	redis            *redis.Client
	credStore        session.CredentialStore
	sinks            []notify.Sink
	logger           *slog.Logger
	httpClient       *http.Client
	onSessionExpired func()

	built bool
}

// New starts a Builder with the default configuration.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithBaseURL sets the platform API root.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

// WithRedis supplies an existing Redis client for credential persistence,
// taking precedence over Config.Redis.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithCredentialStore supplies a custom persistence backend. Takes
// precedence over both Redis options and the default file store.
func (b *Builder) WithCredentialStore(cs session.CredentialStore) *Builder {
	b.credStore = cs
	return b
}

// WithNotificationSink registers a sink for user-facing notifications.
// May be called multiple times; every sink receives every notification.
func (b *Builder) WithNotificationSink(s notify.Sink) *Builder {
	b.sinks = append(b.sinks, s)
	return b
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithHTTPClient overrides the HTTP client used for every request.
func (b *Builder) WithHTTPClient(c *http.Client) *Builder {
	b.httpClient = c
	return b
}

// OnSessionExpired registers the forced-navigation hook invoked after a 401
// tears the session down.
func (b *Builder) OnSessionExpired(fn func()) *Builder {
	b.onSessionExpired = fn
	return b
}

// Build validates the configuration and wires the Client. A Builder builds
// at most once.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, fmt.Errorf("%w: builder already used", ErrNotBuilt)
	}
	if err := b.config.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotBuilt, err)
	}
	b.built = true

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	creds, err := b.credentialStore()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotBuilt, err)
	}

	m := metrics.New(metrics.Config{
		Enabled:       b.config.Metrics.Enabled,
		EnableLatency: b.config.Metrics.EnableLatency,
	})

	var notifier *notify.Dispatcher
	if len(b.sinks) > 0 {
		notifier = notify.NewDispatcher(notify.Config{
			Enabled:    b.config.Notifications.Enabled,
			BufferSize: b.config.Notifications.BufferSize,
			DropIfFull: b.config.Notifications.DropIfFull,
		}, notify.Fanout(b.sinks...))
	}

	sessions := session.NewStore()

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: b.config.RequestTimeout}
	}

	gw, err := gateway.New(gateway.Options{
		BaseURL:          b.config.BaseURL,
		HTTPClient:       httpClient,
		Sessions:         sessions,
		Notifier:         notifier,
		Metrics:          m,
		Logger:           logger,
		OnSessionExpired: b.onSessionExpired,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotBuilt, err)
	}

	c := &Client{
		logger:   logger,
		sessions: sessions,
		creds:    creds,
		gateway:  gw,
		jobs:     jobs.NewTracker(gw, m, logger),
		guard:    guard.New(sessions),
		metrics:  m,
		notifier: notifier,
	}
	c.flows = flows.Deps{
		Login: flows.LoginDeps{
			Send:        gw.Do,
			Install:     sessions.Install,
			Persist:     creds.Save,
			AuthFailure: func(reason string) error { return &AuthError{Reason: reason} },
			MetricInc:   m.Inc,
			Warn:        logger.Warn,
		},
		Logout: flows.LogoutDeps{
			Send:            gw.Do,
			ClearSession:    sessions.Clear,
			ClearCredential: creds.Clear,
			MetricInc:       m.Inc,
			Warn:            logger.Warn,
		},
		Bootstrap: flows.BootstrapDeps{
			LoadCredential:         creds.Load,
			ClearCredential:        creds.Clear,
			Send:                   gw.Do,
			Install:                sessions.Install,
			ResolveUnauthenticated: sessions.Clear,
			MetricInc:              m.Inc,
			Warn:                   logger.Warn,
		},
	}
	return c, nil
}

func (b *Builder) credentialStore() (session.CredentialStore, error) {
	if b.credStore != nil {
		return b.credStore, nil
	}
	if b.redis != nil {
		return session.NewRedisStore(b.redis, b.config.Redis.Prefix), nil
	}
	if b.config.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     b.config.Redis.Addr,
			Password: b.config.Redis.Password,
			DB:       b.config.Redis.DB,
		})
		return session.NewRedisStore(client, b.config.Redis.Prefix), nil
	}
	return session.NewFileStore(b.config.CredentialPath)
}
