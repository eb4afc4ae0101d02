package storage

import (
	"path/filepath"
	"testing"
)

// setupTestSQLiteStore creates a migrated SQLite store in a temporary directory.
func setupTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	config := DefaultConfig(dbPath)
	config.AutoMigrate = true
	db, err := Open(config)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	store := NewSQLiteStore(db)
	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// fastEncryption keeps Argon2 cheap in tests.
func fastEncryption() *EncryptionConfig {
	return &EncryptionConfig{
		Argon2Time:    1,
		Argon2Memory:  8 * 1024,
		Argon2Threads: 1,
	}
}
