package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"BrentCast/internal/repository"
	"BrentCast/pkg/util"
)

var (
	exportWhat  string
	exportOut   string
	exportStart string
	exportDays  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the forecast or the price history to a Parquet file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		switch exportWhat {
		case "forecast":
			start := util.Today()
			if exportStart != "" {
				t, ok := util.ParseDate(exportStart)
				if !ok {
					return fmt.Errorf("invalid --start %q, want YYYY-MM-DD", exportStart)
				}
				start = t
			}
			res, err := toolkit.Composer.Forecast(ctx, start, exportDays)
			if err != nil {
				return err
			}
			rows := repository.ForecastRecords(res)
			if err := repository.WriteParquetFile(exportOut, rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d forecast rows to %s\n", len(rows), exportOut)
		case "history":
			hist, err := toolkit.History.History(ctx, time.Time{}, time.Time{})
			if err != nil {
				return err
			}
			rows := repository.HistoryRecords(hist)
			if err := repository.WriteParquetFile(exportOut, rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d history rows to %s\n", len(rows), exportOut)
		default:
			return fmt.Errorf("unknown --what %q, want forecast or history", exportWhat)
		}
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportWhat, "what", "w", "forecast", "dataset: forecast or history")
	f.StringVarP(&exportOut, "out", "o", "", "output Parquet file")
	f.StringVarP(&exportStart, "start", "s", "", "first forecast date, YYYY-MM-DD (default today)")
	f.IntVarP(&exportDays, "days", "d", 30, "forecast length in days")
	_ = exportCmd.MarkFlagRequired("out")
}
