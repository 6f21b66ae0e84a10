package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"ideaforge/application/ports"
	pkgerrors "ideaforge/pkg/errors"
)

// registryFile is the on-disk shape of the provider registry
type registryFile struct {
	Active    string         `yaml:"active"`
	Providers []providerSpec `yaml:"providers"`
}

type providerSpec struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Enabled bool   `yaml:"enabled"`
}

func defaultRegistryFile() registryFile {
	return registryFile{
		Active: "openai",
		Providers: []providerSpec{
			{Name: "openai", BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini", Enabled: true},
			{Name: "local", BaseURL: "http://localhost:11434/v1", Model: "llama3", Enabled: true},
		},
	}
}

// ProviderRegistry is the YAML-backed generation provider catalog. The
// file is the source of truth: Switch rewrites it, and external edits
// are picked up through fsnotify without a restart. Credentials never
// live in the file; API keys come from the environment.
type ProviderRegistry struct {
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	current registryFile

	watcher *fsnotify.Watcher
	done    chan struct{}
}

var _ ports.ProviderCatalog = (*ProviderRegistry)(nil)

// NewProviderRegistry loads the registry file, creating it with defaults
// when absent, and starts watching it for external changes.
func NewProviderRegistry(path string, logger *zap.Logger) (*ProviderRegistry, error) {
	r := &ProviderRegistry{
		path:   path,
		logger: logger,
		done:   make(chan struct{}),
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		r.current = defaultRegistryFile()
		if err := r.writeFile(r.current); err != nil {
			return nil, fmt.Errorf("failed to create provider registry %s: %w", path, err)
		}
		logger.Info("provider registry created with defaults", zap.String("path", path))
	} else {
		loaded, err := r.readFile()
		if err != nil {
			return nil, err
		}
		r.current = loaded
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create registry watcher: %w", err)
	}
	// Watch the directory, not the file: editors and our own Switch
	// replace the file by rename, which drops a direct file watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch registry directory: %w", err)
	}
	r.watcher = watcher
	go r.watch()

	return r, nil
}

// List returns all configured providers
func (r *ProviderRegistry) List() []ports.ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ports.ProviderInfo, 0, len(r.current.Providers))
	for _, p := range r.current.Providers {
		out = append(out, ports.ProviderInfo{
			Name:    p.Name,
			Model:   p.Model,
			BaseURL: p.BaseURL,
			Enabled: p.Enabled,
			Active:  p.Name == r.current.Active,
		})
	}
	return out
}

// Active returns the currently selected provider
func (r *ProviderRegistry) Active() (ports.ProviderInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.current.Providers {
		if p.Name != r.current.Active {
			continue
		}
		if !p.Enabled {
			return ports.ProviderInfo{}, pkgerrors.NewValidationError(
				fmt.Sprintf("active provider %q is disabled", p.Name))
		}
		return ports.ProviderInfo{
			Name:    p.Name,
			Model:   p.Model,
			BaseURL: p.BaseURL,
			Enabled: true,
			Active:  true,
		}, nil
	}
	return ports.ProviderInfo{}, pkgerrors.NewNotFoundError(
		fmt.Sprintf("active provider %q", r.current.Active))
}

// Switch selects a different provider by name and rewrites the registry
// file. The change applies to the next generation call.
func (r *ProviderRegistry) Switch(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := false
	for _, p := range r.current.Providers {
		if p.Name == name {
			if !p.Enabled {
				return pkgerrors.NewValidationError(
					fmt.Sprintf("provider %q is disabled", name))
			}
			found = true
			break
		}
	}
	if !found {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("provider %q", name))
	}

	updated := r.current
	updated.Active = name
	if err := r.writeFile(updated); err != nil {
		return fmt.Errorf("failed to write provider registry: %w", err)
	}
	r.current = updated

	r.logger.Info("generation provider switched", zap.String("provider", name))
	return nil
}

// Close stops the file watcher
func (r *ProviderRegistry) Close() error {
	close(r.done)
	if r.watcher != nil {
		return r.watcher.Close()
	}
	return nil
}

// watch reloads the registry when the file changes on disk. Rewrites
// from Switch land here too; reloading our own write is harmless.
func (r *ProviderRegistry) watch() {
	for {
		select {
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(r.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			r.reload()
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("registry watcher error", zap.Error(err))
		case <-r.done:
			return
		}
	}
}

// reload swaps in the file contents, keeping the previous state when the
// file is mid-edit or malformed.
func (r *ProviderRegistry) reload() {
	loaded, err := r.readFile()
	if err != nil {
		r.logger.Warn("provider registry reload failed, keeping previous state",
			zap.String("path", r.path),
			zap.Error(err),
		)
		return
	}

	r.mu.Lock()
	changed := loaded.Active != r.current.Active || len(loaded.Providers) != len(r.current.Providers)
	r.current = loaded
	r.mu.Unlock()

	if changed {
		r.logger.Info("provider registry reloaded",
			zap.String("active", loaded.Active),
			zap.Int("providers", len(loaded.Providers)),
		)
	}
}

func (r *ProviderRegistry) readFile() (registryFile, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return registryFile{}, fmt.Errorf("failed to read provider registry %s: %w", r.path, err)
	}

	var loaded registryFile
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return registryFile{}, fmt.Errorf("failed to parse provider registry %s: %w", r.path, err)
	}
	if len(loaded.Providers) == 0 {
		return registryFile{}, fmt.Errorf("provider registry %s lists no providers", r.path)
	}
	if loaded.Active == "" {
		loaded.Active = loaded.Providers[0].Name
	}
	return loaded, nil
}

// writeFile persists the registry atomically via rename
func (r *ProviderRegistry) writeFile(contents registryFile) error {
	data, err := yaml.Marshal(contents)
	if err != nil {
		return err
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}
