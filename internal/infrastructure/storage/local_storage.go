// Package storage destinos de los documentos generados por lotes: directorio local o S3.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/seikyu-api/internal/application/billing"
	"github.com/jhoicas/seikyu-api/pkg/config"
)

var _ billing.DocumentStore = (*LocalStore)(nil)

// LocalStore escribe cada documento como archivo bajo un directorio raíz.
type LocalStore struct {
	root string
}

// NewLocalStore crea el directorio raíz si no existe.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage local: crear %s: %w", dir, err)
	}
	return &LocalStore{root: dir}, nil
}

// Put escribe en un temporal y renombra, para no dejar archivos a medias.
func (s *LocalStore) Put(ctx context.Context, key string, body []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storage local: crear directorio: %w", err)
	}
	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("storage local: escribir %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("storage local: renombrar %s: %w", key, err)
	}
	return nil
}

// resolve impide que una clave salga del directorio raíz.
func (s *LocalStore) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	path := filepath.Join(s.root, clean)
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("storage local: clave inválida %q", key)
	}
	return path, nil
}

// New elige el destino según STORAGE_DRIVER.
func New(ctx context.Context, cfg config.StorageConfig) (billing.DocumentStore, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.LocalDir)
	case "s3":
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("storage: driver desconocido %q", cfg.Driver)
	}
}
