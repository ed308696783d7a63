package repository

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"BrentCast/internal/domain/models"
)

// ForecastRecord is the columnar layout of an exported forecast row.
type ForecastRecord struct {
	ModelID        string  `parquet:"model_id"`
	Date           string  `parquet:"date"`
	PredictedPrice float64 `parquet:"predicted_price"`
	LowerBound     float64 `parquet:"lower_bound"`
	UpperBound     float64 `parquet:"upper_bound"`
}

// HistoryRecord is the columnar layout of an exported observation.
type HistoryRecord struct {
	Date  string  `parquet:"date"`
	Price float64 `parquet:"price"`
}

// ForecastRecords flattens a forecast for export. Values keep their two-decimal rounding.
func ForecastRecords(res *models.ForecastResult) []ForecastRecord {
	out := make([]ForecastRecord, len(res.Rows))
	for i, r := range res.Rows {
		out[i] = ForecastRecord{
			ModelID:        res.ModelID,
			Date:           r.Date,
			PredictedPrice: models.Round2(float64(r.Point)),
			LowerBound:     models.Round2(float64(r.Lower)),
			UpperBound:     models.Round2(float64(r.Upper)),
		}
	}
	return out
}

// HistoryRecords flattens history rows for export.
func HistoryRecords(rows []models.HistoryRow) []HistoryRecord {
	out := make([]HistoryRecord, len(rows))
	for i, r := range rows {
		out[i] = HistoryRecord{Date: r.Date, Price: models.Round2(float64(r.Price))}
	}
	return out
}

// WriteParquet writes rows with a schema inferred from T's parquet tags.
func WriteParquet[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// WriteParquetFile creates path and writes rows to it.
func WriteParquetFile[T any](path string, rows []T) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteParquet(file, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
