package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
	applogger "BrentCast/pkg/logger"
	"BrentCast/pkg/util"
)

// CSVSource reads a local Data,Preço (US$) file, the last-resort copy of the series.
type CSVSource struct {
	path string
	l    *applogger.Logger
}

var _ domrepo.PriceSource = (*CSVSource)(nil)

func NewCSVSource(path string, l *applogger.Logger) *CSVSource {
	if l == nil {
		l = applogger.Nop()
	}
	return &CSVSource{path: path, l: l}
}

func (s *CSVSource) Name() string { return "csv" }

func (s *CSVSource) Load(ctx context.Context) (*models.HistoricalSeries, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, &models.UpstreamUnavailableError{Source: s.Name(), Err: err}
	}
	defer f.Close()

	points, err := ReadPriceCSV(ctx, f)
	if err != nil {
		return nil, err
	}
	series := models.NewHistoricalSeries(points, s.Name())
	s.l.Info("csv series loaded", applogger.String("path", s.path), applogger.Int("rows", series.Len()))
	return series, nil
}

// ReadPriceCSV parses a two-column price table. The header names the columns;
// "Data"/"date" and "Preço (US$)"/"price" are recognised in any order.
func ReadPriceCSV(ctx context.Context, r io.Reader) ([]models.TimeSeriesPoint, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &models.DataValidationError{Field: "header", Reason: "empty file"}
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	dateCol, priceCol := -1, -1
	for i, h := range header {
		switch name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))); {
		case name == "data" || name == "date":
			dateCol = i
		case strings.HasPrefix(name, "preço") || strings.HasPrefix(name, "preco") || strings.HasPrefix(name, "price"):
			priceCol = i
		}
	}
	if dateCol < 0 {
		return nil, &models.DataValidationError{Field: "header", Value: strings.Join(header, ","), Reason: "missing Data column"}
	}
	if priceCol < 0 {
		return nil, &models.DataValidationError{Field: "header", Value: strings.Join(header, ","), Reason: "missing Preço (US$) column"}
	}

	var points []models.TimeSeriesPoint
	for row := 2; ; row++ {
		if row%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row, err)
		}
		if len(rec) <= dateCol || len(rec) <= priceCol {
			return nil, &models.DataValidationError{Field: "row", Row: row, Value: strings.Join(rec, ","), Reason: "missing columns"}
		}
		date, ok := parseSourceDate(rec[dateCol])
		if !ok {
			return nil, &models.DataValidationError{Field: "date", Row: row, Value: rec[dateCol], Reason: "expected YYYY-MM-DD or DD/MM/YYYY"}
		}
		price, err := util.ParseDecimal(rec[priceCol])
		if err != nil {
			return nil, &models.DataValidationError{Field: "price", Row: row, Value: rec[priceCol], Reason: "not a decimal number"}
		}
		points = append(points, models.TimeSeriesPoint{Date: date, Price: price})
	}
	return points, nil
}

func parseSourceDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	// pandas writes timestamps as "2005-01-03 00:00:00"
	if len(s) > 10 && s[10] == ' ' {
		s = s[:10]
	}
	for _, layout := range []string{util.ISODate, util.BRDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
