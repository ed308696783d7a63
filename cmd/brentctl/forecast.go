package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	models "BrentCast/internal/domain/models"
	"BrentCast/pkg/util"
)

var (
	forecastStart  string
	forecastDays   int
	forecastOutput string
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Print a corrected forecast from the persisted models",
	RunE: func(cmd *cobra.Command, _ []string) error {
		start := util.Today()
		if forecastStart != "" {
			t, ok := util.ParseDate(forecastStart)
			if !ok {
				return fmt.Errorf("invalid --start %q, want YYYY-MM-DD", forecastStart)
			}
			start = t
		}
		res, err := toolkit.Composer.Forecast(cmd.Context(), start, forecastDays)
		if err != nil {
			return err
		}
		switch forecastOutput {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		case "table":
			return printForecastTable(cmd.OutOrStdout(), res)
		}
		return fmt.Errorf("unknown --output %q", forecastOutput)
	},
}

func printForecastTable(w io.Writer, res *models.ForecastResult) error {
	fmt.Fprintf(w, "model %s  correction %s\n", res.ModelID, res.Correction)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Date", "Forecast", "Lower", "Upper"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	data := make([][]string, 0, len(res.Rows))
	for _, r := range res.Rows {
		data = append(data, []string{r.Date, r.Point.String(), r.Lower.String(), r.Upper.String()})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func init() {
	f := forecastCmd.Flags()
	f.StringVarP(&forecastStart, "start", "s", "", "first forecast date, YYYY-MM-DD (default today)")
	f.IntVarP(&forecastDays, "days", "d", 30, "number of consecutive days")
	f.StringVarP(&forecastOutput, "output", "o", "table", "output format: table or json")
}
