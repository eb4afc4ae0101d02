package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the card image cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Show image cache counts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := a.openStack(cmd.Context())
				if err != nil {
					return err
				}
				defer a.closeStack(st)

				s := st.imageCache.Stats()
				fmt.Fprintf(cmd.OutOrStdout(), "Entries:  %d\nFresh:    %d\nStale:    %d\nFailed:   %d\nCooldown: %d\n",
					s.Entries, s.Fresh, s.Stale, s.Failed, s.Cooldown)
				return nil
			},
		},
		&cobra.Command{
			Use:   "prune",
			Short: "Remove stale image entries",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := a.openStack(cmd.Context())
				if err != nil {
					return err
				}
				defer a.closeStack(st)

				n, err := st.imageCache.Prune(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d entries\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every image entry",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := a.openStack(cmd.Context())
				if err != nil {
					return err
				}
				defer a.closeStack(st)

				if err := st.imageCache.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Image cache cleared")
				return nil
			},
		},
	)

	return cmd
}
