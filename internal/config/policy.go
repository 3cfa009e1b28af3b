package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"interactions-backend/internal/providers/label"
)

// Policy holds the tunables spec §9's open question calls out as
// configurable heuristic policy rather than compile-time constants: the
// label adapter's same-class block-list, the item count bound, and the
// negative-entry cache TTL. Unlike Config (credentials, base URLs,
// concurrency sizes — read once at process start), Policy may be reloaded
// without restarting the process. Only ClassGroups takes effect: the
// server applies it to the label matcher on each reload, while MaxItems
// and NegativeEntryTTL are loaded but not consulted by the pipeline.
type Policy struct {
	MaxItems         int
	NegativeEntryTTL time.Duration
	ClassGroups      []label.ClassGroup
}

// policyFile is the on-disk YAML shape, following the teacher's pattern of
// a plain serializable struct decoded by a dedicated FileLoader.
type policyFile struct {
	MaxItems              int               `yaml:"maxItems"`
	NegativeEntryTTLHours int               `yaml:"negativeEntryTtlHours"`
	ClassGroups           []classGroupFile  `yaml:"classGroups"`
}

type classGroupFile struct {
	Name  string   `yaml:"name"`
	Drugs []string `yaml:"drugs"`
}

func defaultPolicy() *Policy {
	return &Policy{
		MaxItems:         10,
		NegativeEntryTTL: 24 * time.Hour,
		ClassGroups:      label.DefaultClassGroups,
	}
}

// PolicyLoader reads Policy from a YAML file, falling back to
// defaultPolicy when the file is absent — the teacher's Loader tolerates a
// missing config file the same way (internal/config/loader.go's
// os.IsNotExist handling).
type PolicyLoader struct {
	path string
}

// NewPolicyLoader builds a loader for the YAML file at path. An empty path
// defaults to POLICY_CONFIG_PATH or "config/policy.yaml".
func NewPolicyLoader(path string) *PolicyLoader {
	if path == "" {
		path = getEnv("POLICY_CONFIG_PATH", filepath.Join("config", "policy.yaml"))
	}
	return &PolicyLoader{path: path}
}

// Load reads and parses the policy file, applying defaults for anything
// the file omits or for a missing file entirely.
func (l *PolicyLoader) Load() (*Policy, error) {
	policy := defaultPolicy()

	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return policy, nil
		}
		return nil, fmt.Errorf("open policy file %s: %w", l.path, err)
	}
	defer file.Close()

	var raw policyFile
	if err := yaml.NewDecoder(file).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", l.path, err)
	}

	if raw.MaxItems > 0 {
		policy.MaxItems = raw.MaxItems
	}
	if raw.NegativeEntryTTLHours > 0 {
		policy.NegativeEntryTTL = time.Duration(raw.NegativeEntryTTLHours) * time.Hour
	}
	if len(raw.ClassGroups) > 0 {
		groups := make([]label.ClassGroup, 0, len(raw.ClassGroups))
		for _, g := range raw.ClassGroups {
			groups = append(groups, label.ClassGroup{Name: g.Name, Drugs: g.Drugs})
		}
		policy.ClassGroups = groups
	}

	return policy, nil
}

// PolicyWatcher watches the policy file's directory and reloads Policy on
// change, notifying registered callbacks — grounded on the teacher's
// ConfigWatcher (internal/config/watcher.go), trimmed to one file instead
// of a base/env/local hierarchy.
type PolicyWatcher struct {
	loader    *PolicyLoader
	policy    *Policy
	callbacks []func(*Policy)
	mu        sync.RWMutex
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
}

// NewPolicyWatcher loads the initial policy and, if enabled, starts
// watching its file for changes.
func NewPolicyWatcher(loader *PolicyLoader, logger *zap.Logger, enabled bool) (*PolicyWatcher, error) {
	initial, err := loader.Load()
	if err != nil {
		return nil, err
	}

	w := &PolicyWatcher{
		loader: loader,
		policy: initial,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	if !enabled {
		logger.Info("policy hot reload disabled")
		return w, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create policy file watcher: %w", err)
	}
	w.watcher = fsWatcher

	dir := filepath.Dir(loader.path)
	if err := fsWatcher.Add(dir); err != nil {
		// A missing config directory just means no hot reload is
		// possible yet; the loaded defaults still stand.
		logger.Warn("policy directory not watchable", zap.String("dir", dir), zap.Error(err))
		fsWatcher.Close()
		w.watcher = nil
		return w, nil
	}

	go w.watchLoop()
	logger.Info("policy hot reload enabled", zap.String("path", loader.path))
	return w, nil
}

func (w *PolicyWatcher) watchLoop() {
	defer w.watcher.Close()

	var debounceTimer *time.Timer
	const debounceDelay = 500 * time.Millisecond

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.loader.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("policy file watcher error", zap.Error(err))

		case <-w.stopCh:
			return
		}
	}
}

func (w *PolicyWatcher) reload() {
	newPolicy, err := w.loader.Load()
	if err != nil {
		w.logger.Error("failed to reload policy", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.policy = newPolicy
	callbacks := make([]func(*Policy), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logger.Info("policy reloaded", zap.Int("classGroups", len(newPolicy.ClassGroups)))
	for _, cb := range callbacks {
		cb(newPolicy)
	}
}

// OnChange registers a callback invoked with the new Policy after a
// successful reload.
func (w *PolicyWatcher) OnChange(cb func(*Policy)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Current returns the most recently loaded Policy.
func (w *PolicyWatcher) Current() *Policy {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.policy
}

// Stop stops watching for changes. Safe to call when hot reload was never
// enabled.
func (w *PolicyWatcher) Stop() {
	if w.watcher != nil {
		close(w.stopCh)
	}
}
