package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"
)

type backupCard struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"unitPrice"`
}

func seedBackupStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	lists := map[string][]backupCard{
		"Modern": {
			{ID: "a", Name: "Lightning Bolt", Quantity: 4, Price: "1.25"},
			{ID: "b", Name: "Counterspell", Quantity: 2, Price: "0.75"},
		},
	}
	if err := store.Set(ctx, KeyLists, lists); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, KeySchemaVersion, 2); err != nil {
		t.Fatal(err)
	}
}

func TestBackupRestore_Plain(t *testing.T) {
	ctx := context.Background()
	source := NewMemoryStore()
	seedBackupStore(t, source)

	var buf bytes.Buffer
	if err := Backup(ctx, source, &buf, BackupOptions{}); err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	if !strings.Contains(buf.String(), "Lightning Bolt") {
		t.Error("plain backup should be readable YAML")
	}

	target := NewMemoryStore()
	snapshot, err := Restore(ctx, target, &buf, BackupOptions{})
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if len(snapshot.Keys) != 2 {
		t.Errorf("snapshot keys = %d, want 2", len(snapshot.Keys))
	}

	var lists map[string][]backupCard
	if _, err := target.Get(ctx, KeyLists, &lists); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(lists["Modern"]) != 2 {
		t.Fatalf("restored lists = %+v", lists)
	}
	if lists["Modern"][0].Quantity != 4 || lists["Modern"][0].Price != "1.25" {
		t.Errorf("restored card = %+v", lists["Modern"][0])
	}

	var version int
	if _, err := target.Get(ctx, KeySchemaVersion, &version); err != nil {
		t.Fatal(err)
	}
	if version != 2 {
		t.Errorf("schema version = %d, want 2", version)
	}
}

func TestBackupRestore_Encrypted(t *testing.T) {
	ctx := context.Background()
	source := setupTestSQLiteStore(t)
	seedBackupStore(t, source)

	opts := BackupOptions{Password: "hunter2", Encryption: fastEncryption()}

	var buf bytes.Buffer
	if err := Backup(ctx, source, &buf, opts); err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if !IsEncrypted(buf.Bytes()) {
		t.Fatal("backup should carry the encryption header")
	}
	if strings.Contains(buf.String(), "Lightning Bolt") {
		t.Error("encrypted backup leaks plaintext")
	}

	encrypted := buf.Bytes()

	if _, err := Restore(ctx, NewMemoryStore(), bytes.NewReader(encrypted), BackupOptions{}); err == nil {
		t.Error("Restore() without password should fail")
	}

	wrong := BackupOptions{Password: "wrong", Encryption: fastEncryption()}
	if _, err := Restore(ctx, NewMemoryStore(), bytes.NewReader(encrypted), wrong); err == nil {
		t.Error("Restore() with wrong password should fail")
	}

	target := NewMemoryStore()
	if _, err := Restore(ctx, target, bytes.NewReader(encrypted), opts); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	var lists map[string][]backupCard
	found, err := target.Get(ctx, KeyLists, &lists)
	if err != nil || !found {
		t.Fatalf("Get() found=%v err=%v", found, err)
	}
	if lists["Modern"][1].Name != "Counterspell" {
		t.Errorf("restored lists = %+v", lists)
	}
}

func TestRestore_RejectsUnknownVersion(t *testing.T) {
	doc := "version: 99\nkeys: {}\n"
	if _, err := Restore(context.Background(), NewMemoryStore(), strings.NewReader(doc), BackupOptions{}); err == nil {
		t.Error("Restore() should reject unknown versions")
	}
}

func TestEncryptDecryptData(t *testing.T) {
	tests := []struct {
		name      string
		plaintext string
		password  string
	}{
		{"simple text", "Hello, World!", "test-password"},
		{"empty string", "", "test-password"},
		{"special characters", "Jötun Grunt // 中文", "pássword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := fastEncryption()
			config.Password = tt.password

			encrypted, err := EncryptData([]byte(tt.plaintext), config)
			if err != nil {
				t.Fatalf("EncryptData() error = %v", err)
			}

			decrypted, err := DecryptData(encrypted, config)
			if err != nil {
				t.Fatalf("DecryptData() error = %v", err)
			}
			if string(decrypted) != tt.plaintext {
				t.Errorf("Decrypted data = %q, want %q", string(decrypted), tt.plaintext)
			}
		})
	}
}

func TestDecryptDataCorrupted(t *testing.T) {
	config := fastEncryption()
	config.Password = "password"

	encrypted, err := EncryptData([]byte("test data"), config)
	if err != nil {
		t.Fatalf("EncryptData() error = %v", err)
	}

	encrypted[len(encrypted)-1] ^= 0xFF

	if _, err := DecryptData(encrypted, config); err == nil {
		t.Error("DecryptData() with corrupted data should fail")
	}
}

func TestEncryptDataNoPassword(t *testing.T) {
	if _, err := EncryptData([]byte("x"), &EncryptionConfig{}); err == nil {
		t.Error("EncryptData() with no password should fail")
	}
}

func TestRestore_SQLiteIsAtomic(t *testing.T) {
	ctx := context.Background()
	source := NewMemoryStore()
	seedBackupStore(t, source)

	var buf bytes.Buffer
	if err := Backup(ctx, source, &buf, BackupOptions{}); err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	target := setupTestSQLiteStore(t)
	if _, err := Restore(ctx, target, &buf, BackupOptions{}); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	var restored map[string][]backupCard
	found, err := target.Get(ctx, KeyLists, &restored)
	if err != nil || !found {
		t.Fatalf("Get() found=%v err=%v", found, err)
	}
	if len(restored["Modern"]) != 2 || restored["Modern"][0].Name != "Lightning Bolt" {
		t.Errorf("restored lists = %+v", restored)
	}
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := setupTestSQLiteStore(t)

	err := store.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)",
			"partial", `"x"`, time.Now()); err != nil {
			return err
		}
		return errors.New("abort")
	})
	if err == nil {
		t.Fatal("WithTransaction() should return the callback error")
	}

	var v string
	found, err := store.Get(ctx, "partial", &v)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("rolled back key should not be stored")
	}
}
