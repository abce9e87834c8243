package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credential.json")
	fs, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	if cred, err := fs.Load(ctx); err != nil || cred != nil {
		t.Fatalf("empty store Load = (%v, %v), want (nil, nil)", cred, err)
	}

	want := testCredential(24 * time.Hour)
	if err := fs.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat credential file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("credential file mode = %o, want 600", perm)
	}

	got, err := fs.Load(ctx)
	if err != nil || got == nil {
		t.Fatalf("Load = (%v, %v)", got, err)
	}
	if got.Token != want.Token {
		t.Fatalf("token = %q, want %q", got.Token, want.Token)
	}

	if err := fs.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := fs.Clear(ctx); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
	if cred, _ := fs.Load(ctx); cred != nil {
		t.Fatal("credential survived Clear")
	}
}

func TestFileStoreDiscardsMalformedAndExpired(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "credential.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if cred, err := fs.Load(ctx); err != nil || cred != nil {
		t.Fatalf("malformed blob Load = (%v, %v), want (nil, nil)", cred, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("malformed credential file not discarded")
	}

	if err := fs.Save(ctx, testCredential(-time.Minute)); err != nil {
		t.Fatalf("Save expired: %v", err)
	}
	if cred, _ := fs.Load(ctx); cred != nil {
		t.Fatal("expired credential returned from Load")
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	rs := NewRedisStore(client, "")
	ctx := context.Background()

	if cred, err := rs.Load(ctx); err != nil || cred != nil {
		t.Fatalf("empty store Load = (%v, %v), want (nil, nil)", cred, err)
	}

	want := testCredential(time.Hour)
	if err := rs.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	ttl := mr.TTL("akc:credential")
	if ttl <= 0 || ttl > time.Hour {
		t.Fatalf("stored TTL = %v, want within (0, 1h]", ttl)
	}

	got, err := rs.Load(ctx)
	if err != nil || got == nil {
		t.Fatalf("Load = (%v, %v)", got, err)
	}
	if got.Token != want.Token {
		t.Fatalf("token = %q, want %q", got.Token, want.Token)
	}

	if err := rs.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if cred, _ := rs.Load(ctx); cred != nil {
		t.Fatal("credential survived Clear")
	}
}

func TestRedisStoreExpiredCredentialClearsKey(t *testing.T) {
	mr, client := newTestRedis(t)
	rs := NewRedisStore(client, "ns")
	ctx := context.Background()

	if err := rs.Save(ctx, testCredential(-time.Minute)); err != nil {
		t.Fatalf("Save expired: %v", err)
	}
	if mr.Exists("ns:credential") {
		t.Fatal("expired credential written to redis")
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	rs := NewRedisStore(client, "")
	mr.Close()

	if _, err := rs.Load(context.Background()); err == nil {
		t.Fatal("Load against closed redis succeeded")
	}
}

func TestMemStoreRoundTrip(t *testing.T) {
	ms := NewMemStore()
	ctx := context.Background()

	if cred, err := ms.Load(ctx); err != nil || cred != nil {
		t.Fatalf("empty store Load = (%v, %v)", cred, err)
	}
	if err := ms.Save(ctx, testCredential(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if cred, _ := ms.Load(ctx); cred == nil {
		t.Fatal("saved credential not returned")
	}
	if err := ms.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if cred, _ := ms.Load(ctx); cred != nil {
		t.Fatal("credential survived Clear")
	}
}
