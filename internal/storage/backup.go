package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// snapshotVersion is the format version of backup files.
const snapshotVersion = 1

// Snapshot is the YAML document written by Backup.
type Snapshot struct {
	Version   int                    `yaml:"version"`
	CreatedAt time.Time              `yaml:"created_at"`
	Keys      map[string]interface{} `yaml:"keys"`
}

// BackupOptions configures Backup and Restore.
type BackupOptions struct {
	// Password encrypts the backup when set. Restore needs the same password.
	Password string

	// Encryption overrides the Argon2 parameters. Optional.
	Encryption *EncryptionConfig
}

func (o BackupOptions) encryption() *EncryptionConfig {
	if o.Encryption != nil {
		cfg := *o.Encryption
		cfg.Password = o.Password
		return &cfg
	}
	return DefaultEncryptionConfig(o.Password)
}

// Backup writes every key in store to w as a YAML snapshot.
func Backup(ctx context.Context, store Store, w io.Writer, opts BackupOptions) error {
	keys, err := store.Keys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	snapshot := Snapshot{
		Version:   snapshotVersion,
		CreatedAt: time.Now().UTC(),
		Keys:      make(map[string]interface{}, len(keys)),
	}

	for _, key := range keys {
		var raw json.RawMessage
		if _, err := store.Get(ctx, key, &raw); err != nil {
			return fmt.Errorf("failed to read %s: %w", key, err)
		}

		var value interface{}
		if err := json.Unmarshal(raw, &value); err != nil {
			return fmt.Errorf("failed to decode %s: %w", key, err)
		}
		snapshot.Keys[key] = value
	}

	data, err := yaml.Marshal(&snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if opts.Password != "" {
		data, err = EncryptData(data, opts.encryption())
		if err != nil {
			return fmt.Errorf("encryption failed: %w", err)
		}
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// Restore reads a snapshot written by Backup and stores every key it holds.
// Keys absent from the snapshot are left untouched.
func Restore(ctx context.Context, store Store, r io.Reader, opts BackupOptions) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}

	if IsEncrypted(data) {
		if opts.Password == "" {
			return nil, fmt.Errorf("backup is encrypted: password required")
		}
		data, err = DecryptData(data, opts.encryption())
		if err != nil {
			return nil, err
		}
	}

	var snapshot Snapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse backup: %w", err)
	}
	if snapshot.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported backup version %d", snapshot.Version)
	}

	if batch, ok := store.(BatchSetter); ok {
		if err := batch.SetAll(ctx, snapshot.Keys); err != nil {
			return nil, fmt.Errorf("failed to restore backup: %w", err)
		}
		return &snapshot, nil
	}

	for key, value := range snapshot.Keys {
		if err := store.Set(ctx, key, value); err != nil {
			return nil, fmt.Errorf("failed to restore %s: %w", key, err)
		}
	}

	return &snapshot, nil
}
