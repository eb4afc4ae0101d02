package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/MTG-Buylist/internal/charts"
)

func newChartCmd(a *app) *cobra.Command {
	var (
		metric string
		byList bool
		output string
		open   bool
	)

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render purchase progress as an HTML chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := charts.ParseMetric(metric)
			if err != nil {
				return err
			}

			st, err := a.openStack(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeStack(st)

			cfg := charts.DefaultChartConfig()
			var render func(io.Writer) error

			if byList {
				var data []charts.DataPoint
				for _, s := range st.svc.Summaries() {
					v, _ := s.Totals.RunningTotal.Round(2).Float64()
					data = append(data, charts.DataPoint{Label: s.Name, Value: v})
				}
				cfg.Title = "Remaining spend by list"
				render = func(w io.Writer) error { return charts.RenderListSpendBar(w, data, cfg) }
			} else {
				cfg.Subtitle = st.svc.Lists().Current
				progress := st.svc.Progress()
				render = func(w io.Writer) error { return charts.RenderProgressPie(w, progress, m, cfg) }
			}

			if output == "" {
				output = filepath.Join(os.TempDir(), "buylist-chart.html")
			}
			if err := charts.RenderToFile(output, render); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Chart written to %s\n", output)

			if open {
				if err := charts.OpenInBrowser(output); err != nil {
					return fmt.Errorf("failed to open browser: %w", err)
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&metric, "metric", string(charts.MetricCards), "cards or spend")
	flags.BoolVar(&byList, "by-list", false, "compare remaining spend across all lists")
	flags.StringVarP(&output, "output", "o", "", "output HTML file (default in the temp directory)")
	flags.BoolVar(&open, "open", false, "open the chart in a browser")
	return cmd
}
