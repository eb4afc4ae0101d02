package storage

import (
	"context"
	"os"
	"testing"

	"github.com/ramonehamilton/MTG-Buylist/internal/config"
)

type sampleEntry struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

func storesUnderTest(t *testing.T) map[string]Store {
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": setupTestSQLiteStore(t),
	}

	// Redis runs only when a server is provided
	if addr := os.Getenv("BUYLIST_TEST_REDIS_ADDR"); addr != "" {
		rs, err := NewRedisStore(context.Background(), RedisOptions{Addr: addr, Prefix: "buylist-test:"})
		if err != nil {
			t.Fatalf("Failed to connect to redis: %v", err)
		}
		t.Cleanup(func() { _ = rs.Close() })
		stores["redis"] = rs
	}

	return stores
}

func TestStore_SetAndGet(t *testing.T) {
	ctx := context.Background()

	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			value := map[string][]sampleEntry{
				"Default": {{Name: "Lightning Bolt", Quantity: 4}},
			}
			if err := store.Set(ctx, KeyLists, value); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			defer func() { _ = store.Delete(ctx, KeyLists) }()

			var got map[string][]sampleEntry
			found, err := store.Get(ctx, KeyLists, &got)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if !found {
				t.Fatal("Get() reported key missing")
			}
			if len(got["Default"]) != 1 || got["Default"][0].Quantity != 4 {
				t.Errorf("Get() = %+v", got)
			}
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	ctx := context.Background()

	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			target := map[string]bool{"untouched": true}
			found, err := store.Get(ctx, "does-not-exist", &target)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if found {
				t.Error("Get() found a missing key")
			}
			if !target["untouched"] {
				t.Error("target should be left untouched")
			}
		})
	}
}

func TestStore_OverwriteDeleteKeys(t *testing.T) {
	ctx := context.Background()

	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Set(ctx, KeySchemaVersion, 1); err != nil {
				t.Fatal(err)
			}
			if err := store.Set(ctx, KeySchemaVersion, 2); err != nil {
				t.Fatal(err)
			}
			if err := store.Set(ctx, KeyColumnVisibility, map[string]bool{"qty": false}); err != nil {
				t.Fatal(err)
			}

			var version int
			if _, err := store.Get(ctx, KeySchemaVersion, &version); err != nil {
				t.Fatal(err)
			}
			if version != 2 {
				t.Errorf("version = %d, want 2", version)
			}

			keys, err := store.Keys(ctx)
			if err != nil {
				t.Fatalf("Keys() error = %v", err)
			}
			if len(keys) != 2 || keys[0] != KeyColumnVisibility || keys[1] != KeySchemaVersion {
				t.Errorf("Keys() = %v", keys)
			}

			if err := store.Delete(ctx, KeySchemaVersion); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if err := store.Delete(ctx, KeySchemaVersion); err != nil {
				t.Fatalf("second Delete() error = %v", err)
			}

			found, err := store.Get(ctx, KeySchemaVersion, &version)
			if err != nil {
				t.Fatal(err)
			}
			if found {
				t.Error("key should be gone after Delete")
			}

			_ = store.Delete(ctx, KeyColumnVisibility)
		})
	}
}

func TestMemoryStore_Closed(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Close()

	if err := store.Set(context.Background(), "k", 1); err != ErrClosed {
		t.Errorf("Set() after Close = %v, want ErrClosed", err)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := t.TempDir() + "/reopen.db"
	ctx := context.Background()

	cfg := DefaultConfig(dbPath)
	cfg.AutoMigrate = true

	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := NewSQLiteStore(db).Set(ctx, KeyLists, map[string]int{"Default": 0}); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	db, err = Open(cfg)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	store := NewSQLiteStore(db)
	defer store.Close()

	var got map[string]int
	found, err := store.Get(ctx, KeyLists, &got)
	if err != nil || !found {
		t.Fatalf("Get() found=%v err=%v", found, err)
	}
	if _, ok := got["Default"]; !ok {
		t.Errorf("Get() = %v", got)
	}
}

func TestMigrateSchema(t *testing.T) {
	dbPath := t.TempDir() + "/migrate.db"

	version, err := MigrateSchema(dbPath)
	if err != nil {
		t.Fatalf("MigrateSchema() error = %v", err)
	}
	if version < 1 {
		t.Errorf("version = %d, want >= 1", version)
	}

	again, err := MigrateSchema(dbPath)
	if err != nil {
		t.Fatalf("second MigrateSchema() error = %v", err)
	}
	if again != version {
		t.Errorf("second run version = %d, want %d", again, version)
	}
}

func TestSQLiteURL(t *testing.T) {
	if got := sqliteURL("/tmp/buylist.db"); got != "sqlite:///tmp/buylist.db" {
		t.Errorf("sqliteURL() = %q", got)
	}
}

func TestOpenFromConfig(t *testing.T) {
	ctx := context.Background()

	cfg := config.DefaultConfig()
	cfg.Storage.Backend = config.BackendMemory
	store, err := OpenFromConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Errorf("memory backend returned %T", store)
	}

	cfg.Storage.Backend = config.BackendSQLite
	cfg.Storage.Path = t.TempDir() + "/cfg.db"
	store, err = OpenFromConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*SQLiteStore); !ok {
		t.Errorf("sqlite backend returned %T", store)
	}

	cfg.Storage.Backend = "bogus"
	if _, err := OpenFromConfig(ctx, cfg); err == nil {
		t.Error("unknown backend should fail")
	}
}
