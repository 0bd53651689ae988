package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML settings file. Keys missing from the file keep their
// defaults.
func LoadFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	s := Defaults()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	s.applyDefaults()
	return s, nil
}

// FileStore is a Store backed by a YAML file. Set rewrites the file; Watch
// picks up edits made by other processes.
type FileStore struct {
	*hub
	path   string
	logger *slog.Logger
}

// OpenFile loads path into a FileStore. A missing file yields the defaults;
// it is created on the first Set.
func OpenFile(path string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s, err = Defaults(), nil
	}
	if err != nil {
		return nil, err
	}
	return &FileStore{
		hub:    newHub(s),
		path:   path,
		logger: logger.With("component", "settings", "path", path),
	}, nil
}

// Path returns the file backing the store.
func (f *FileStore) Path() string {
	return f.path
}

// Set implements Store. The file is written before subscribers are told.
func (f *FileStore) Set(values map[string]any) error {
	return f.update(values, f.write)
}

func (f *FileStore) write(s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Reload re-reads the file and notifies subscribers if anything changed.
func (f *FileStore) Reload() (bool, error) {
	s, err := LoadFile(f.path)
	if err != nil {
		return false, err
	}
	return f.replace(s), nil
}

// Watch reloads the file whenever it changes on disk, until ctx is done.
func (f *FileStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch settings: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors and our own writes replace the file.
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watch settings: %w", err)
	}
	name := filepath.Clean(f.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			changed, err := f.Reload()
			if err != nil {
				f.logger.Warn("failed to reload settings", "error", err)
				continue
			}
			if changed {
				f.logger.Info("settings reloaded")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("settings watcher error", "error", err)
		}
	}
}
