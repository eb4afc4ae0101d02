package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/MTG-Buylist/internal/storage"
)

func newBackupCmd(a *app) *cobra.Command {
	var encrypt bool

	cmd := &cobra.Command{
		Use:   "backup FILE",
		Short: "Write every list, setting and cached image to a YAML snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			opts := storage.BackupOptions{}
			if encrypt {
				if opts.Password, err = askPassword("Backup password: ", true); err != nil {
					return err
				}
			}

			store, err := storage.OpenFromConfig(cmd.Context(), a.cfg)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil && err == nil {
					err = closeErr
				}
			}()

			var buf bytes.Buffer
			if err := storage.Backup(cmd.Context(), store, &buf, opts); err != nil {
				return err
			}
			if err := os.WriteFile(args[0], buf.Bytes(), 0o600); err != nil {
				return fmt.Errorf("failed to write backup: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&encrypt, "encrypt", false, "encrypt the backup with a password")
	return cmd
}

func newRestoreCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore FILE",
		Short: "Restore a snapshot written by backup, replacing the stored keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read backup: %w", err)
			}

			opts := storage.BackupOptions{}
			if storage.IsEncrypted(data) {
				if opts.Password, err = askPassword("Backup password: ", false); err != nil {
					return err
				}
			}

			if !yes {
				if !stdinIsTerminal() {
					return errors.New("refusing to overwrite stored lists without --yes")
				}
				ok, err := confirm(os.Stdin, cmd.OutOrStdout(), "Replace stored lists with the backup?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			}

			store, err := storage.OpenFromConfig(cmd.Context(), a.cfg)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil && err == nil {
					err = closeErr
				}
			}()

			snapshot, err := storage.Restore(cmd.Context(), store, bytes.NewReader(data), opts)
			if err != nil {
				return err
			}

			// Loading the service migrates restored legacy lists.
			if _, err := a.buildStack(cmd.Context(), store); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d keys from backup taken %s\n",
				len(snapshot.Keys), snapshot.CreatedAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// askPassword prompts for a password, twice when confirming a new one.
func askPassword(prompt string, confirmNew bool) (string, error) {
	if env := os.Getenv("BUYLIST_BACKUP_PASSWORD"); env != "" {
		return env, nil
	}
	pw, err := readPassword(prompt)
	if err != nil {
		if errors.Is(err, errNotTerminal) {
			return "", errors.New("password required: set BUYLIST_BACKUP_PASSWORD or run in a terminal")
		}
		return "", err
	}
	if pw == "" {
		return "", errors.New("password cannot be empty")
	}
	if confirmNew {
		again, err := readPassword("Repeat password: ")
		if err != nil {
			return "", err
		}
		if again != pw {
			return "", errors.New("passwords do not match")
		}
	}
	return pw, nil
}
