package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BrentCast/internal/domain/models"
)

func artifacts(id string) *models.ModelArtifacts {
	return &models.ModelArtifacts{
		Manifest: models.ModelManifest{
			ModelID:    id,
			TrainedAt:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
			SeriesHash: "abc",
			Points:     10,
		},
		Trend:    []byte(`{"k":1}`),
		Residual: []byte(`{"trees":[]}`),
	}
}

func TestFileModelStoreNotTrained(t *testing.T) {
	s := NewFileModelStore(filepath.Join(t.TempDir(), "modelo"), nil)
	_, err := s.Load(context.Background())
	var nt *models.ModelNotTrainedError
	require.True(t, errors.As(err, &nt))

	_, err = s.Manifest(context.Background())
	require.True(t, errors.As(err, &nt))
}

func TestFileModelStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewFileModelStore(filepath.Join(t.TempDir(), "modelo"), nil)

	require.NoError(t, s.Save(ctx, artifacts("m1")))
	first, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "m1", first.Manifest.ModelID)
	assert.Equal(t, models.ModelSchemaVersion, first.Manifest.SchemaVersion)
	assert.JSONEq(t, `{"k":1}`, string(first.Trend))
	assert.JSONEq(t, `{"trees":[]}`, string(first.Residual))

	// saving the same pair again is an idempotent overwrite
	require.NoError(t, s.Save(ctx, artifacts("m1")))
	second, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, s.Save(ctx, artifacts("m2")))
	m, err := s.Manifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "m2", m.ModelID)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 3, "no temp files left behind")
}

func TestFileModelStoreDetectsMismatch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFileModelStore(dir, nil)
	require.NoError(t, s.Save(ctx, artifacts("m1")))

	other := NewFileModelStore(t.TempDir(), nil)
	require.NoError(t, other.Save(ctx, artifacts("m2")))
	b, err := os.ReadFile(filepath.Join(other.Dir(), residualFile))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, residualFile), b, 0o644))

	_, err = s.Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "m2")
}

func TestFileModelStoreRejectsInvalidArtifact(t *testing.T) {
	a := artifacts("m1")
	a.Trend = []byte("not json")
	err := NewFileModelStore(t.TempDir(), nil).Save(context.Background(), a)
	assert.Error(t, err)
}
