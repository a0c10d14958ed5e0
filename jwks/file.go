package jwks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	jose "github.com/go-jose/go-jose/v4"
)

// FileProvider serves keys from a JWKS document on local disk. Call Watch to
// reload the document whenever it changes.
type FileProvider struct {
	path string
	log  *slog.Logger

	mu  sync.RWMutex
	set jose.JSONWebKeySet
}

var _ Provider = (*FileProvider)(nil)

// NewFileProvider loads the JWKS document at path.
func NewFileProvider(path string, log *slog.Logger) (*FileProvider, error) {
	if log == nil {
		log = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	p := &FileProvider{path: abs, log: log}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload re-reads the document. On failure the previous key set is kept.
func (p *FileProvider) Reload() error {
	b, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("read jwks file: %w", err)
	}
	var set jose.JSONWebKeySet
	if err := json.Unmarshal(b, &set); err != nil {
		return fmt.Errorf("parse jwks file: %w", err)
	}
	p.mu.Lock()
	p.set = set
	p.mu.Unlock()
	return nil
}

// Get implements Provider.
func (p *FileProvider) Get(_ context.Context, kid string) (JWK, error) {
	p.mu.RLock()
	keys := p.set.Key(kid)
	p.mu.RUnlock()
	if len(keys) == 0 {
		return JWK{}, fmt.Errorf("%w: kid %q", ErrSigningKeyNotFound, kid)
	}
	return FromJSONWebKey(keys[0]), nil
}

// Watch reloads the document on change until ctx is done. The parent
// directory is watched so that atomic replace-by-rename is observed.
func (p *FileProvider) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify unavailable: %w", err)
	}
	defer func() {
		_ = w.Close()
	}()
	if err := w.Add(filepath.Dir(p.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(p.path), err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != p.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := p.Reload(); err != nil {
				p.log.WarnContext(ctx, "jwks.file.reload_failed", slog.String("path", p.path), slog.String("err", err.Error()))
				continue
			}
			p.log.DebugContext(ctx, "jwks.file.reloaded", slog.String("path", p.path))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			p.log.DebugContext(ctx, "fsnotify error", slog.String("err", err.Error()))
		}
	}
}
