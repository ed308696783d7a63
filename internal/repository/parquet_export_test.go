package repository

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BrentCast/internal/domain/models"
)

func TestWriteForecastParquet(t *testing.T) {
	res := &models.ForecastResult{
		ModelID: "m1",
		Rows: []models.AdjustedForecast{
			{Date: "2025/01/01", Point: 74.234, Lower: 70.1, Upper: 78.456},
			{Date: "2025/01/02", Point: 74.5, Lower: 70, Upper: 79},
		},
	}
	path := filepath.Join(t.TempDir(), "forecast.parquet")
	require.NoError(t, WriteParquetFile(path, ForecastRecords(res)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	reader := parquet.NewGenericReader[ForecastRecord](f)
	defer reader.Close()
	out := make([]ForecastRecord, reader.NumRows())
	n, err := reader.Read(out)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	require.Equal(t, 2, n)
	assert.Equal(t, "m1", out[0].ModelID)
	assert.Equal(t, "2025/01/01", out[0].Date)
	assert.Equal(t, 74.23, out[0].PredictedPrice)
	assert.Equal(t, 78.46, out[0].UpperBound)
}
