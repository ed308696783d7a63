package main

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var analyticsBins int

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Summarize the price history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := toolkit.History.Analytics(cmd.Context(), analyticsBins)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		s := a.Summary
		fmt.Fprintf(out, "%d observations %s..%s  min %s  max %s  mean %s  std %s  change %.2f%%\n",
			s.Count, s.FirstDate, s.LastDate, s.Min, s.Max, s.Mean, s.StdDev, s.TotalPct)

		table := tablewriter.NewWriter(out)
		table.Header([]string{"Year", "Mean", "Days"})
		data := make([][]string, 0, len(a.AnnualMean))
		for _, m := range a.AnnualMean {
			data = append(data, []string{strconv.Itoa(m.Year), m.Mean.String(), strconv.Itoa(m.Count)})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		return table.Render()
	},
}

func init() {
	analyticsCmd.Flags().IntVarP(&analyticsBins, "bins", "b", 30, "histogram bins")
}
