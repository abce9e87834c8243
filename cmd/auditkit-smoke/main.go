// auditkit-smoke exercises a deployment end to end: login, list both job
// collections, optionally submit an export, and print the client metrics.
// Useful after environment changes and as a headless health probe.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	auditkit "github.com/kestrelsec/auditkit"
	"github.com/kestrelsec/auditkit/internal/notify"
	"github.com/kestrelsec/auditkit/jobs"
	"github.com/kestrelsec/auditkit/session"
)

func main() {
	var (
		baseURL      = pflag.String("base-url", "", "platform API root (or AUDITKIT_BASE_URL)")
		configPath   = pflag.String("config", "", "optional YAML config file")
		email        = pflag.String("email", "", "account email")
		password     = pflag.String("password", "", "account password (prefer AUDITKIT_SMOKE_PASSWORD)")
		secondFactor = pflag.String("second-factor", "", "second-factor code, if the account requires one")
		exportDomain = pflag.String("submit-export", "", "submit a test export for this domain and wait for it")
		timeout      = pflag.Duration("timeout", 60*time.Second, "overall run timeout")
		verbose      = pflag.BoolP("verbose", "v", false, "debug logging")
	)
	pflag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(*baseURL, *configPath, *email, *password, *secondFactor, *exportDomain, *timeout, logger); err != nil {
		fmt.Fprintln(os.Stderr, "smoke failed:", err)
		os.Exit(1)
	}
	fmt.Println("ok")
}

func run(baseURL, configPath, email, password, secondFactor, exportDomain string, timeout time.Duration, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := loadConfig(baseURL, configPath)
	if err != nil {
		return err
	}
	if password == "" {
		password = os.Getenv("AUDITKIT_SMOKE_PASSWORD")
	}
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}

	client, err := auditkit.New().
		WithConfig(cfg).
		WithLogger(logger).
		WithNotificationSink(notify.NewJSONWriterSink(os.Stderr)).
		Build()
	if err != nil {
		return err
	}
	defer client.Close()

	client.Initialize(ctx)

	if client.Readiness() != session.ReadinessAuthenticated {
		principal, err := client.Login(ctx, auditkit.Challenge{
			Email:        email,
			Password:     password,
			SecondFactor: secondFactor,
		})
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		fmt.Printf("logged in as %s (%s)\n", principal.DisplayName, principal.Role)
	} else {
		fmt.Printf("resumed session for %s\n", client.Principal().DisplayName)
	}

	for _, kind := range []jobs.Kind{jobs.KindImport, jobs.KindExport} {
		listed, err := client.Jobs().List(ctx, kind)
		if err != nil {
			return fmt.Errorf("list %ss: %w", kind, err)
		}
		fmt.Printf("%d %s job(s)\n", len(listed), kind)
	}

	if exportDomain != "" {
		if err := runExport(ctx, client, exportDomain); err != nil {
			return err
		}
	}

	snap := client.MetricsSnapshot()
	fmt.Printf("requests: %d transient, %d rejected, %d network\n",
		snap.Counters[auditkit.MetricRequestTransient],
		snap.Counters[auditkit.MetricRequestRejected],
		snap.Counters[auditkit.MetricRequestNetwork])
	return nil
}

func loadConfig(baseURL, configPath string) (auditkit.Config, error) {
	if configPath != "" {
		cfg, err := auditkit.ConfigFromFile(configPath)
		if err != nil {
			return auditkit.Config{}, err
		}
		if baseURL != "" {
			cfg.BaseURL = baseURL
		}
		return cfg, nil
	}
	cfg, err := auditkit.ConfigFromEnv()
	if err != nil {
		return auditkit.Config{}, err
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return cfg, nil
}

func runExport(ctx context.Context, client *auditkit.Client, domain string) error {
	job, err := client.Jobs().SubmitExport(ctx, auditkit.ExportRequest{
		Name:   "smoke " + time.Now().Format(time.RFC3339),
		Domain: domain,
		Format: "csv",
	})
	if err != nil {
		return fmt.Errorf("submit export: %w", err)
	}
	fmt.Printf("export %s submitted (%s)\n", job.ID, job.Status)

	for !job.Status.Terminal() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
		job, err = client.Jobs().Refresh(ctx, jobs.KindExport, job.ID)
		if err != nil {
			return fmt.Errorf("refresh export: %w", err)
		}
		fmt.Printf("export %s: %s (%d/%d)\n", job.ID, job.Status, job.Processed, job.Total)
	}

	if job.Status != jobs.StatusCompleted {
		return fmt.Errorf("export ended %s", job.Status)
	}
	body, artifact, err := client.Jobs().Download(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	body.Close()
	fmt.Printf("artifact %s (%d bytes)\n", artifact.Filename, artifact.Size)
	return nil
}
