package cache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

var (
	errTimeout   = errors.New("i/o timeout")
	errWrongType = errors.New("WRONGTYPE")
)

func TestNullCacheNeverHits(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()

	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if hit || data != nil || err != nil {
		t.Errorf("Get = %v, %v, %v, want nil, false, nil", data, hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func newFileCache(t *testing.T) *FileCache {
	t.Helper()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newFileCache(t)

	if _, hit, _ := c.Get(ctx, "page"); hit {
		t.Fatal("empty cache hit")
	}
	png := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	if err := c.Set(ctx, "page", png, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, hit, err := c.Get(ctx, "page")
	if err != nil || !hit {
		t.Fatalf("Get = %v, %v, want hit", hit, err)
	}
	if !bytes.Equal(got, png) {
		t.Errorf("Get = %v, want %v", got, png)
	}

	if err := c.Delete(ctx, "page"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "page"); hit {
		t.Error("deleted key still hits")
	}
	if err := c.Delete(ctx, "page"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := newFileCache(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("x"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Fatal("fresh entry missed")
	}
	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry hit")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry left on disk")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c := newFileCache(t)

	if err := c.Set(ctx, "k", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("k"), []byte("not msgpack"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get = %v, %v, want clean miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c := newFileCache(t)

	keys := []string{"layout:a", "artifact:b", "artifact:c"}
	for _, k := range keys {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for _, k := range keys {
		if _, hit, _ := c.Get(ctx, k); hit {
			t.Errorf("%q survived Clear", k)
		}
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("Clear removed the cache directory: %v", err)
	}
}

func TestHash(t *testing.T) {
	a, b := Hash([]byte("E major")), Hash([]byte("A minor"))
	if a != Hash([]byte("E major")) {
		t.Error("Hash is not deterministic")
	}
	if a == b {
		t.Error("different inputs share a hash")
	}
	if len(a) != 64 {
		t.Errorf("len(Hash) = %d, want 64", len(a))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"layout deterministic",
			k.LayoutKey("h", LayoutKeyOpts{Mode: "export"}),
			k.LayoutKey("h", LayoutKeyOpts{Mode: "export"}), true},
		{"layout mode",
			k.LayoutKey("h", LayoutKeyOpts{Mode: "export"}),
			k.LayoutKey("h", LayoutKeyOpts{Mode: "interactive"}), false},
		{"layout sheet",
			k.LayoutKey("h1", LayoutKeyOpts{Mode: "export"}),
			k.LayoutKey("h2", LayoutKeyOpts{Mode: "export"}), false},
		{"artifact format",
			k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg", Style: "classic"}),
			k.ArtifactKey("h", ArtifactKeyOpts{Format: "png", Style: "classic"}), false},
		{"artifact scale",
			k.ArtifactKey("h", ArtifactKeyOpts{Format: "png", Style: "classic"}),
			k.ArtifactKey("h", ArtifactKeyOpts{Format: "png", Style: "classic", Scale: 3}), false},
		{"artifact style",
			k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg", Style: "classic"}),
			k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg", Style: "ink"}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if (tt.a == tt.b) != tt.same {
				t.Errorf("keys %q and %q: same = %v, want %v", tt.a, tt.b, tt.a == tt.b, tt.same)
			}
		})
	}

	if key := k.LayoutKey("h", LayoutKeyOpts{}); !strings.HasPrefix(key, "layout:") {
		t.Errorf("LayoutKey = %q, want layout: prefix", key)
	}
	if key := k.ArtifactKey("h", ArtifactKeyOpts{}); !strings.HasPrefix(key, "artifact:") {
		t.Errorf("ArtifactKey = %q, want artifact: prefix", key)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "v1.0.0:")

	opts := LayoutKeyOpts{Mode: "export"}
	if got, want := scoped.LayoutKey("h", opts), "v1.0.0:"+inner.LayoutKey("h", opts); got != want {
		t.Errorf("LayoutKey = %s, want %s", got, want)
	}
	if got := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "pdf"}); !strings.HasPrefix(got, "v1.0.0:artifact:") {
		t.Errorf("ArtifactKey = %s, want v1.0.0:artifact: prefix", got)
	}
	if got := NewScopedKeyer(nil, "dev:").LayoutKey("h", opts); !strings.HasPrefix(got, "dev:layout:") {
		t.Errorf("nil inner LayoutKey = %s, want default keyer underneath", got)
	}
}

func TestTransient(t *testing.T) {
	if Transient(nil) != nil {
		t.Error("Transient(nil) != nil")
	}
	err := Transient(errTimeout)
	if !IsTransient(err) || !errors.Is(err, errTimeout) {
		t.Errorf("Transient(%v) lost its marking or cause", errTimeout)
	}
	if err.Error() != errTimeout.Error() {
		t.Errorf("Error() = %q, want %q", err.Error(), errTimeout.Error())
	}
	if IsTransient(errWrongType) {
		t.Error("unmarked error reported transient")
	}
}

func TestWithRetry(t *testing.T) {
	retryBase = time.Millisecond
	t.Cleanup(func() { retryBase = 200 * time.Millisecond })

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"success", 0, nil, 1, nil},
		{"permanent failure", 5, errWrongType, 1, errWrongType},
		{"recovers", 1, Transient(errTimeout), 2, nil},
		{"gives up", 5, Transient(errTimeout), 3, errTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := withRetry(context.Background(), func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, func() error { return Transient(errTimeout) })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
