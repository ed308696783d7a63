package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
	applogger "BrentCast/pkg/logger"
)

const (
	trendFile    = "trend.json"
	residualFile = "residual.json"
	manifestFile = "manifest.json"
)

// artifactEnvelope tags a serialized model with the pair it belongs to.
type artifactEnvelope struct {
	SchemaVersion int             `json:"schema_version"`
	ModelID       string          `json:"model_id"`
	Kind          string          `json:"kind"`
	Model         json.RawMessage `json:"model"`
}

// FileModelStore keeps the trained pair as JSON files in one directory. Every file
// is replaced by rename and the manifest goes last, so a pair becomes visible only
// once both artifacts are in place.
type FileModelStore struct {
	dir string
	mu  sync.RWMutex
	l   *applogger.Logger
}

var _ domrepo.ModelStore = (*FileModelStore)(nil)

func NewFileModelStore(dir string, l *applogger.Logger) *FileModelStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &FileModelStore{dir: dir, l: l}
}

// Dir returns the artifact directory.
func (s *FileModelStore) Dir() string { return s.dir }

func (s *FileModelStore) Save(ctx context.Context, a *models.ModelArtifacts) error {
	if a == nil || a.Manifest.ModelID == "" {
		return fmt.Errorf("save model: missing model id")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	a.Manifest.SchemaVersion = models.ModelSchemaVersion

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	for _, art := range []struct {
		name, kind string
		body       []byte
	}{
		{trendFile, "trend", a.Trend},
		{residualFile, "residual", a.Residual},
	} {
		if !json.Valid(art.body) {
			return fmt.Errorf("save model: %s artifact is not valid JSON", art.kind)
		}
		b, err := json.Marshal(artifactEnvelope{
			SchemaVersion: models.ModelSchemaVersion,
			ModelID:       a.Manifest.ModelID,
			Kind:          art.kind,
			Model:         art.body,
		})
		if err != nil {
			return fmt.Errorf("save model: encode %s: %w", art.kind, err)
		}
		if err := writeAtomic(filepath.Join(s.dir, art.name), b); err != nil {
			return err
		}
	}

	mb, err := json.MarshalIndent(a.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("save model: encode manifest: %w", err)
	}
	if err := writeAtomic(filepath.Join(s.dir, manifestFile), mb); err != nil {
		return err
	}
	s.l.Info("model pair saved",
		applogger.String("dir", s.dir),
		applogger.String("model_id", a.Manifest.ModelID),
	)
	return nil
}

func (s *FileModelStore) Load(ctx context.Context) (*models.ModelArtifacts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, err := s.readManifest()
	if err != nil {
		return nil, err
	}
	out := &models.ModelArtifacts{Manifest: *m}
	for _, art := range []struct {
		name, kind string
		dst        *[]byte
	}{
		{trendFile, "trend", &out.Trend},
		{residualFile, "residual", &out.Residual},
	} {
		b, err := os.ReadFile(filepath.Join(s.dir, art.name))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &models.ModelNotTrainedError{Location: s.dir}
		}
		if err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
		var env artifactEnvelope
		if err := json.Unmarshal(b, &env); err != nil {
			return nil, fmt.Errorf("load model: decode %s: %w", art.name, err)
		}
		if env.SchemaVersion != models.ModelSchemaVersion {
			return nil, fmt.Errorf("load model: %s has schema version %d, want %d", art.name, env.SchemaVersion, models.ModelSchemaVersion)
		}
		if env.ModelID != m.ModelID || env.Kind != art.kind {
			return nil, fmt.Errorf("load model: %s belongs to model %q (%s), manifest names %q", art.name, env.ModelID, env.Kind, m.ModelID)
		}
		*art.dst = env.Model
	}
	return out, nil
}

func (s *FileModelStore) Manifest(ctx context.Context) (*models.ModelManifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readManifest()
}

func (s *FileModelStore) readManifest() (*models.ModelManifest, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, manifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &models.ModelNotTrainedError{Location: s.dir}
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m models.ModelManifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.SchemaVersion != models.ModelSchemaVersion {
		return nil, fmt.Errorf("manifest schema version %d, want %d", m.SchemaVersion, models.ModelSchemaVersion)
	}
	return &m, nil
}

func writeAtomic(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish %s: %w", path, err)
	}
	return nil
}
