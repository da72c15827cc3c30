//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/fretsheet/pkg/errors"
)

// redisTestDB keeps integration runs away from the default database.
const redisTestDB = 15

func openRedisStore(ctx context.Context, t *testing.T) Store {
	addr := os.Getenv("FRETSHEET_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FRETSHEET_TEST_REDIS_ADDR not set, skipping integration test")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: redisTestDB})
	if err := rdb.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	st := NewRedisStoreWithClient(rdb)
	t.Cleanup(func() {
		_ = rdb.FlushDB(context.Background()).Err()
		_ = st.Close()
	})
	return st
}

func openMongoStore(ctx context.Context, t *testing.T) Store {
	uri := os.Getenv("FRETSHEET_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("FRETSHEET_TEST_MONGO_URI not set, skipping integration test")
	}
	db := "fretsheet_test_" + uuid.NewString()[:8]
	st, err := NewMongoStore(ctx, uri, db)
	if err != nil {
		t.Fatalf("NewMongoStore() error: %v", err)
	}
	t.Cleanup(func() {
		_ = st.client.Database(db).Drop(context.Background())
		_ = st.Close()
	})
	return st
}

func TestBackends_Integration(t *testing.T) {
	tests := []struct {
		name string
		open func(context.Context, *testing.T) Store
	}{
		{"redis", openRedisStore},
		{"mongo", openMongoStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			st := tt.open(ctx, t)

			if list, err := st.List(ctx); err != nil || len(list) != 0 {
				t.Fatalf("List() on empty store = %v, %v", list, err)
			}

			a := newSheet(t, "Blues", 3)
			b := newSheet(t, "Jazz", 1)
			if err := st.Put(ctx, a); err != nil {
				t.Fatalf("Put(a) error: %v", err)
			}
			if err := st.Put(ctx, b); err != nil {
				t.Fatalf("Put(b) error: %v", err)
			}
			if a.ID == "" || b.ID == "" || a.ID == b.ID {
				t.Fatalf("Put() assigned IDs %q and %q", a.ID, b.ID)
			}

			got, err := st.Get(ctx, a.ID)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if got.Title != "Blues" || got.Len() != 3 || got.Grid != a.Grid {
				t.Errorf("Get() = %+v", got)
			}
			for i := range a.Diagrams {
				if got.Diagrams[i].ID != a.Diagrams[i].ID {
					t.Errorf("diagram %d ID = %q, want %q", i, got.Diagrams[i].ID, a.Diagrams[i].ID)
				}
			}

			a.Title = "Slow Blues"
			if err := st.Put(ctx, a); err != nil {
				t.Fatalf("Put(update) error: %v", err)
			}
			list, err := st.List(ctx)
			if err != nil {
				t.Fatalf("List() error: %v", err)
			}
			titles := map[string]string{}
			for _, sum := range list {
				titles[sum.ID] = sum.Title
			}
			if len(list) != 2 || titles[a.ID] != "Slow Blues" || titles[b.ID] != "Jazz" {
				t.Errorf("List() = %+v", list)
			}

			dup, err := Duplicate(ctx, st, b.ID, "")
			if err != nil || dup.Title != "Copy of Jazz" {
				t.Fatalf("Duplicate() = %v, %v", dup, err)
			}

			if err := st.Delete(ctx, a.ID); err != nil {
				t.Fatalf("Delete() error: %v", err)
			}
			if _, err := st.Get(ctx, a.ID); !errors.Is(err, errors.ErrCodeSheetNotFound) {
				t.Errorf("Get(deleted) error = %v, want SHEET_NOT_FOUND", err)
			}
			if err := st.Delete(ctx, a.ID); !errors.Is(err, errors.ErrCodeSheetNotFound) {
				t.Errorf("Delete(deleted) error = %v, want SHEET_NOT_FOUND", err)
			}
			if list, _ := st.List(ctx); len(list) != 2 {
				t.Errorf("List() after delete returned %d sheets, want 2", len(list))
			}
		})
	}
}
