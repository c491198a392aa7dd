package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/fieldline/engine/pkg/api"
	"github.com/fieldline/engine/pkg/log"
)

// DefaultDebounce is how long the watcher waits after the last file event
// before signaling a reload
const DefaultDebounce = 250 * time.Millisecond

var loadableExts = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
}

// LoadDir seeds the store with every definition file in dir. Files that
// fail to parse or validate are skipped with a warning so one bad file
// cannot block the rest. Returns the number of workflows stored
func LoadDir(
	ctx context.Context, s Store, dir string, logger *slog.Logger,
) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading definitions dir: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !loadable(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		wf, err := LoadFile(path)
		if err != nil {
			logger.Warn("skipping definition file",
				slog.String("path", path),
				log.Error(err),
			)
			continue
		}
		if err := s.Put(ctx, wf); err != nil {
			logger.Warn("storing definition failed",
				slog.String("path", path),
				log.WorkflowID(wf.ID),
				log.Error(err),
			)
			continue
		}
		logger.Debug("loaded workflow definition",
			slog.String("path", path),
			log.WorkflowID(wf.ID),
		)
		loaded++
	}
	return loaded, nil
}

// LoadFile parses a single definition file as JSON or YAML and validates it
func LoadFile(path string) (*api.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDefinition(data, filepath.Ext(path))
}

// ParseDefinition decodes definition bytes. YAML documents are converted
// through JSON so the workflow's json tags drive both formats
func ParseDefinition(data []byte, ext string) (*api.Workflow, error) {
	if ext == ".yaml" || ext == ".yml" {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("converting yaml: %w", err)
		}
		data = converted
	}

	wf := &api.Workflow{}
	if err := json.Unmarshal(data, wf); err != nil {
		return nil, fmt.Errorf("parsing definition: %w", err)
	}
	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return wf, nil
}

// Watcher signals when definition files under a directory change, with
// rapid event bursts collapsed into a single notification
type Watcher struct {
	fs       *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
}

// NewWatcher creates a watcher over the given definitions directory
func NewWatcher(dir string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating definitions watcher: %w", err)
	}
	if err := fs.Add(dir); err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	return &Watcher{
		fs:       fs,
		logger:   logger,
		debounce: DefaultDebounce,
	}, nil
}

// Run blocks delivering debounced change notifications until the context
// is canceled or the watcher is closed
func (w *Watcher) Run(ctx context.Context, onChange func()) {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !watchable(event) {
				continue
			}
			w.logger.Debug("definition file event",
				slog.String("path", event.Name),
				slog.String("op", event.Op.String()),
			)
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("definitions watcher error", log.Error(err))

		case <-timer.C:
			if pending {
				pending = false
				onChange()
			}
		}
	}
}

// Close stops the watcher and unblocks Run
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func watchable(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return loadable(name)
}

func loadable(name string) bool {
	return loadableExts[strings.ToLower(filepath.Ext(name))]
}
