package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"BrentCast/internal/usecase"
)

var trainForce bool

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit and persist the trend and residual models",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rep, err := toolkit.Trainer.Train(cmd.Context(), usecase.TrainOptions{Force: trainForce})
		if err != nil {
			return err
		}
		m := rep.Manifest
		out := cmd.OutOrStdout()
		if rep.Skipped {
			fmt.Fprintf(out, "series unchanged, kept model %s\n", m.ModelID)
			return nil
		}
		fmt.Fprintf(out, "model %s trained on %d points ending %s\n", m.ModelID, m.Points, m.HistoryEnd.Format("2006-01-02"))
		e := m.Evaluation
		fmt.Fprintf(out, "holdout rows=%d  trend rmse=%.4f mae=%.4f mape=%.2f%%  hybrid rmse=%.4f mae=%.4f mape=%.2f%%\n",
			e.TestRows, e.TrendOnly.RMSE, e.TrendOnly.MAE, e.TrendOnly.MAPE, e.Hybrid.RMSE, e.Hybrid.MAE, e.Hybrid.MAPE)
		return nil
	},
}

func init() {
	trainCmd.Flags().BoolVarP(&trainForce, "force", "f", false, "retrain even when the series is unchanged")
}
