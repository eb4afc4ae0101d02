package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/MTG-Buylist/internal/lists"
)

func newListsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "Show every list with its outstanding spend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStack(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeStack(st)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "\tLIST\tENTRIES\tTO BUY\tREMAINING\tBOUGHT")
			for _, s := range st.svc.Summaries() {
				marker := ""
				if s.Current {
					marker = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t$%s\t%.0f%%\n",
					marker, s.Name, s.Entries, s.Totals.CardCount,
					s.Totals.RunningTotal.StringFixed(2), s.Progress.Percent())
			}
			return tw.Flush()
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create a list and select it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStack(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeStack(st)

			created, err := st.svc.CreateList(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !created {
				return fmt.Errorf("list %q already exists or the name is empty", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created list %q\n", args[0])
			return a.pinList(args[0])
		},
	}
}

func newSelectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "select NAME",
		Short: "Select the list later commands work on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStack(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeStack(st)

			if err := st.svc.SelectList(cmd.Context(), args[0]); err != nil {
				return err
			}
			if err := a.pinList(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Selected list %q\n", args[0])
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a list and every card in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !yes {
				if !stdinIsTerminal() {
					return fmt.Errorf("refusing to delete %q without --yes", name)
				}
				ok, err := confirm(os.Stdin, cmd.OutOrStdout(), fmt.Sprintf("Delete list %q?", name))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			}

			st, err := a.openStack(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeStack(st)

			deleted, err := st.svc.DeleteList(cmd.Context(), name)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("%w: %s", lists.ErrListNotFound, name)
			}
			if a.cfg.View.List == name {
				if err := a.pinList(""); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted list %q, now on %q\n", name, st.svc.Lists().Current)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// pinList records name as the working list in the config file.
func (a *app) pinList(name string) error {
	a.cfg.View.List = name
	if err := a.cfg.SaveTo(a.configPath); err != nil {
		return fmt.Errorf("failed to save selected list: %w", err)
	}
	return nil
}
