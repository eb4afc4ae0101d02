package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ramonehamilton/MTG-Buylist/internal/buylist"
	"github.com/ramonehamilton/MTG-Buylist/internal/lists"
	"github.com/ramonehamilton/MTG-Buylist/internal/view"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		wait     time.Duration
		noLookup bool
	)

	cmd := &cobra.Command{
		Use:   "import [FILE]",
		Short: "Merge a deck list into the selected list and look up prices",
		Long: `Reads a deck list from FILE, or stdin when FILE is omitted or "-".
Lines look like "4 Lightning Bolt" or "4x Lightning Bolt (M10) 146".
Cards already in the list have their quantities added.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			st, err := a.openStack(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeStack(st)

			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()
			if !noLookup {
				st.svc.Start(ctx)
			}

			res, err := st.svc.ImportDeckList(cmd.Context(), text)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d cards into %q (%d entries)\n",
				res.Parsed, st.svc.Lists().Current, res.Entries)

			if res.Lookups > 0 {
				fmt.Fprintf(out, "Looking up %d cards...\n", res.Lookups)
				if !waitLookups(ctx, st.svc) {
					fmt.Fprintln(out, "Lookups did not finish in time; run import again to retry")
				}
			}

			unpriced := 0
			for _, e := range st.svc.Entries() {
				if e.UnitPrice == nil {
					unpriced++
				}
			}
			if unpriced > 0 {
				fmt.Fprintf(out, "%d entries have no price\n", unpriced)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 2*time.Minute, "how long to wait for price lookups")
	cmd.Flags().BoolVar(&noLookup, "no-lookup", false, "skip price lookups")
	return cmd
}

// waitLookups reports whether every lookup finished before ctx expired.
func waitLookups(ctx context.Context, svc *buylist.Service) bool {
	done := make(chan struct{})
	go func() {
		svc.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		<-done
		return false
	}
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read deck list: %w", err)
	}
	return string(data), nil
}

func newShowCmd(a *app) *cobra.Command {
	var (
		filter   string
		sortKey  string
		desc     bool
		page     int
		pageSize int
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the selected list as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, ok := view.ParseSortKey(sortKey)
			if !ok {
				return fmt.Errorf("unknown sort key %q (want name, manaCost, quantity, unitPrice or totalPrice)", sortKey)
			}

			st, err := a.openStack(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeStack(st)

			svc := st.svc
			if cmd.Flags().Changed("page-size") {
				svc.SetPageSize(pageSize)
			}
			if all {
				svc.SetPageSize(0)
			}
			svc.SetFilter(filter)
			applySort(svc, key, desc)
			svc.SetPage(page - 1)

			width := 0
			if stdoutIsTerminal() {
				width = terminalWidth(100)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\n", svc.Lists().Current)
			if err := renderTable(out, svc.View().Cards, svc.Columns(), width); err != nil {
				return err
			}
			renderFooter(out, svc.View(), svc.ViewState(), svc.Totals())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&filter, "filter", "f", "", "only show cards whose name contains this text")
	flags.StringVarP(&sortKey, "sort", "s", string(view.SortName), "sort column")
	flags.BoolVar(&desc, "desc", false, "sort descending")
	flags.IntVarP(&page, "page", "p", 1, "page number")
	flags.IntVar(&pageSize, "page-size", 0, "cards per page (default from config)")
	flags.BoolVar(&all, "all", false, "show every card on one page")
	return cmd
}

// applySort selects key, toggling until the direction matches.
func applySort(svc *buylist.Service, key view.SortKey, desc bool) {
	want := view.Ascending
	if desc {
		want = view.Descending
	}
	for i := 0; i < 2; i++ {
		s := svc.ViewState().Sort
		if s.Key == key && s.Direction == want {
			return
		}
		svc.SortBy(key)
	}
}

// renderTable writes entries as aligned columns. A positive width
// truncates names so rows fit the terminal.
func renderTable(w io.Writer, cards []lists.CardEntry, cols map[string]bool, width int) error {
	if len(cards) == 0 {
		_, err := fmt.Fprintln(w, "No cards.")
		return err
	}

	type column struct {
		key   string
		title string
		value func(*lists.CardEntry) string
	}
	columns := []column{
		{buylist.ColumnQty, "QTY", func(e *lists.CardEntry) string { return fmt.Sprint(e.Quantity) }},
		{buylist.ColumnManaCost, "COST", func(e *lists.CardEntry) string { return deref(e.ManaCost) }},
		{buylist.ColumnPrice, "PRICE", func(e *lists.CardEntry) string { return money(e.UnitPrice) }},
		{buylist.ColumnTotalPrice, "TOTAL", func(e *lists.CardEntry) string { return money(e.TotalPrice()) }},
		{buylist.ColumnBought, "BOUGHT", boughtCell},
		{buylist.ColumnOrderDetails, "ORDER", func(e *lists.CardEntry) string { return e.OrderDetails }},
	}

	var visible []column
	for _, c := range columns {
		if cols[c.key] {
			visible = append(visible, c)
		}
	}

	nameWidth := 0
	if width > 0 {
		// Rough budget: 12 cells for each other column.
		nameWidth = max(width-12*len(visible)-2, 16)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{"NAME"}
	for _, c := range visible {
		header = append(header, c.title)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for i := range cards {
		e := &cards[i]
		row := []string{truncate(e.Name, nameWidth)}
		for _, c := range visible {
			row = append(row, c.value(e))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func renderFooter(w io.Writer, page view.Page, state buylist.ViewState, totals view.Totals) {
	fmt.Fprintln(w)
	if page.PageCount > 1 {
		fmt.Fprintf(w, "Page %d of %d (%d matching)\n", page.Page+1, page.PageCount, page.TotalMatches)
	}
	if state.Filter != "" {
		fmt.Fprintf(w, "Filter: %q\n", state.Filter)
	}
	fmt.Fprintf(w, "To buy: %d cards, $%s\n", totals.CardCount, totals.RunningTotal.StringFixed(2))
}

func boughtCell(e *lists.CardEntry) string {
	if !e.Bought {
		return ""
	}
	if e.PurchaseOrder != nil {
		return fmt.Sprintf("#%d", *e.PurchaseOrder)
	}
	return "yes"
}

func money(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return "$" + d.StringFixed(2)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
