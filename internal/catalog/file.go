package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/peakwatch/stock-gateway/internal/model"
)

const manifestFile = "last_update.json"

// codePattern restricts market codes to safe file-name characters. Slash
// forms like ETF/KR are alias tokens, normalized to ETF_KR before they
// reach the store; a slash here would resolve to another market's file.
var codePattern = regexp.MustCompile(`^[A-Z0-9_-]+$`)

// FileStore implements Store over a directory of snapshot files, one
// {MARKET_CODE}.json per market plus a last_update.json manifest. This is
// the format the snapshot refresher publishes. Writes go to a temp file
// followed by rename, so concurrent readers never observe a partial file.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("catalog: create data dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) LoadCatalog(_ context.Context, marketCode string) (*model.MarketCatalog, error) {
	path, err := s.catalogPath(marketCode)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, marketCode)
		}
		return nil, fmt.Errorf("catalog: read %s: %w", marketCode, err)
	}

	var catalog model.MarketCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", marketCode, err)
	}
	if catalog.MarketCode == "" {
		catalog.MarketCode = marketCode
	}
	return &catalog, nil
}

func (s *FileStore) SaveCatalog(_ context.Context, catalog *model.MarketCatalog) error {
	path, err := s.catalogPath(catalog.MarketCode)
	if err != nil {
		return err
	}
	return s.writeAtomic(path, catalog)
}

func (s *FileStore) LoadManifest(_ context.Context) (*model.RefreshManifest, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("catalog: read manifest: %w", err)
	}

	var manifest model.RefreshManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("catalog: decode manifest: %w", err)
	}
	return &manifest, nil
}

func (s *FileStore) SaveManifest(_ context.Context, manifest *model.RefreshManifest) error {
	return s.writeAtomic(filepath.Join(s.dir, manifestFile), manifest)
}

func (s *FileStore) catalogPath(marketCode string) (string, error) {
	if !codePattern.MatchString(marketCode) {
		return "", fmt.Errorf("%w: invalid market code %q", ErrNotFound, marketCode)
	}
	return filepath.Join(s.dir, marketCode+".json"), nil
}

// writeAtomic publishes v at path via temp-file-plus-rename.
func (s *FileStore) writeAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("catalog: encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("catalog: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("catalog: write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("catalog: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("catalog: publish %s: %w", filepath.Base(path), err)
	}
	return nil
}
