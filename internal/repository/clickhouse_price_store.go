package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
	pkgch "BrentCast/pkg/clickhouse"
	applogger "BrentCast/pkg/logger"
)

// PriceSchema is the DDL for the price copy and the training log.
func PriceSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.brent_prices (
            date Date,
            price Float64,
            source LowCardinality(String),
            ingested_at DateTime64(3)
        ) ENGINE = ReplacingMergeTree(ingested_at) ORDER BY date`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.training_runs (
            model_id String,
            trained_at DateTime64(3),
            series_hash String,
            source LowCardinality(String),
            points UInt32,
            history_start Date,
            history_end Date,
            trend_rmse Float64,
            hybrid_rmse Float64,
            hybrid_mae Float64,
            hybrid_mape Float64
        ) ENGINE = MergeTree ORDER BY trained_at`, database),
	}
}

// CHPriceStore keeps the last good copy of the series in ClickHouse.
type CHPriceStore struct {
	db *sql.DB
	ch *pkgch.Client
	l  *applogger.Logger
}

var _ domrepo.PriceStore = (*CHPriceStore)(nil)

func NewCHPriceStore(ch *pkgch.Client, l *applogger.Logger) *CHPriceStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHPriceStore{db: ch.DB(), ch: ch, l: l}
}

func (s *CHPriceStore) Name() string { return "clickhouse" }

func (s *CHPriceStore) Health(ctx context.Context) error { return s.ch.Health(ctx) }

// Load returns the stored copy. An empty table is reported as unavailable so the
// fallback chain moves on.
func (s *CHPriceStore) Load(ctx context.Context) (*models.HistoricalSeries, error) {
	start := time.Now()
	const q = `SELECT date, price FROM brent_prices FINAL ORDER BY date ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		s.l.Error("clickhouse load_prices query error", applogger.Error(err))
		return nil, &models.UpstreamUnavailableError{Source: s.Name(), Err: err}
	}
	defer rows.Close()

	points := make([]models.TimeSeriesPoint, 0, 8192)
	for rows.Next() {
		var p models.TimeSeriesPoint
		if err := rows.Scan(&p.Date, &p.Price); err != nil {
			s.l.Error("clickhouse load_prices scan error", applogger.Error(err))
			return nil, fmt.Errorf("scan price: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		s.l.Error("clickhouse load_prices rows error", applogger.Error(err))
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(points) == 0 {
		return nil, &models.UpstreamUnavailableError{Source: s.Name(), Err: fmt.Errorf("brent_prices is empty")}
	}
	s.l.Info("clickhouse load_prices ok",
		applogger.Int("rows", len(points)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return models.NewHistoricalSeries(points, s.Name()), nil
}

// Save upserts the series. ReplacingMergeTree keeps the newest ingestion per date.
func (s *CHPriceStore) Save(ctx context.Context, series *models.HistoricalSeries) error {
	if series.Len() == 0 {
		return nil
	}
	start := time.Now()
	now := time.Now().UTC()
	const chunkSize = 2000
	for lo := 0; lo < series.Len(); lo += chunkSize {
		hi := lo + chunkSize
		if hi > series.Len() {
			hi = series.Len()
		}
		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*4)
		for _, p := range series.Points[lo:hi] {
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, p.Date, p.Price, series.Source, now)
		}
		q := "INSERT INTO brent_prices (date, price, source, ingested_at) VALUES " + strings.Join(values, ",")
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse save_prices error",
				applogger.Int("offset", lo),
				applogger.Error(err),
			)
			return fmt.Errorf("insert prices: %w", err)
		}
	}
	s.l.Debug("clickhouse save_prices ok",
		applogger.Int("rows", series.Len()),
		applogger.String("source", series.Source),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *CHPriceStore) RecordTrainingRun(ctx context.Context, m models.ModelManifest) error {
	const q = `INSERT INTO training_runs
        (model_id, trained_at, series_hash, source, points, history_start, history_end,
         trend_rmse, hybrid_rmse, hybrid_mae, hybrid_mape)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		m.ModelID, m.TrainedAt, m.SeriesHash, m.Source, uint32(m.Points),
		m.HistoryStart, m.HistoryEnd,
		m.Evaluation.TrendOnly.RMSE, m.Evaluation.Hybrid.RMSE, m.Evaluation.Hybrid.MAE, m.Evaluation.Hybrid.MAPE,
	)
	if err != nil {
		s.l.Error("clickhouse record_training_run error", applogger.String("model_id", m.ModelID), applogger.Error(err))
		return fmt.Errorf("insert training run: %w", err)
	}
	return nil
}
