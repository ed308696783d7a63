package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BrentCast/internal/domain/models"
)

func TestReadPriceCSV(t *testing.T) {
	in := "Data,Preço (US$)\n2005-01-04,40.11\n03/01/2005,\"40,79\"\n2005-01-05 00:00:00,39.5\n"
	pts, err := ReadPriceCSV(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, pts, 3)

	series := models.NewHistoricalSeries(pts, "csv")
	require.NoError(t, series.Validate())
	assert.Equal(t, 40.79, series.Points[0].Price)
	assert.Equal(t, 39.5, series.Points[2].Price)
}

func TestReadPriceCSVValidation(t *testing.T) {
	cases := map[string]struct {
		in    string
		field string
		row   int
	}{
		"missing price column": {"Data,Volume\n2005-01-04,1\n", "header", 0},
		"bad date":             {"Data,Preço (US$)\n2005-13-04,40\n", "date", 2},
		"bad price":            {"Data,Preço (US$)\n2005-01-04,40\n2005-01-05,abc\n", "price", 3},
		"short row":            {"Data,Preço (US$)\n2005-01-04\n", "row", 2},
		"empty":                {"", "header", 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadPriceCSV(context.Background(), strings.NewReader(tc.in))
			var dv *models.DataValidationError
			require.True(t, errors.As(err, &dv), "got %v", err)
			assert.Equal(t, tc.field, dv.Field)
			assert.Equal(t, tc.row, dv.Row)
		})
	}
}

func TestCSVSourceMissingFile(t *testing.T) {
	src := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"), nil)
	_, err := src.Load(context.Background())
	var ue *models.UpstreamUnavailableError
	require.True(t, errors.As(err, &ue))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
