package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/go-pkgz/lgr"
)

// DefaultReloadDebounce collapses the burst of events an editor save produces.
const DefaultReloadDebounce = 300 * time.Millisecond

// Watch reloads the configuration whenever a config file in the global or local dir changes
// and passes the new config to onReload. a reload that fails keeps the old config and is logged.
// directories are watched rather than files, editors often replace a file on save.
// returns once the watcher is set up; watching stops when ctx is done.
func Watch(ctx context.Context, cfg *Config, debounce time.Duration, onReload func(*Config)) error {
	if debounce <= 0 {
		debounce = DefaultReloadDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	files := map[string]bool{filepath.Join(cfg.configDir, "config"): true}
	if err := watcher.Add(cfg.configDir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", cfg.configDir, err)
	}
	if cfg.localDir != "" {
		files[filepath.Join(cfg.localDir, "config")] = true
		if err := watcher.Add(cfg.localDir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("watch %s: %w", cfg.localDir, err)
		}
	}

	r := &reloader{globalDir: cfg.configDir, localDir: cfg.localDir, onReload: onReload}
	go r.loop(ctx, watcher, files, debounce)
	return nil
}

// reloader debounces file events into reloads.
type reloader struct {
	globalDir string
	localDir  string
	onReload  func(*Config)

	mu    sync.Mutex
	timer *time.Timer
}

func (r *reloader) loop(ctx context.Context, watcher *fsnotify.Watcher, files map[string]bool, debounce time.Duration) {
	defer func() {
		_ = watcher.Close()
		r.mu.Lock()
		if r.timer != nil {
			r.timer.Stop()
		}
		r.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !files[filepath.Clean(ev.Name)] || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)) {
				continue
			}
			log.Printf("[DEBUG] config file %s changed (%s)", ev.Name, ev.Op)
			r.schedule(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[WARN] config watcher: %v", err)
		}
	}
}

func (r *reloader) schedule(debounce time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(debounce, r.reload)
}

func (r *reloader) reload() {
	cfg, err := loadWithLocal(r.globalDir, r.localDir)
	if err != nil {
		log.Printf("[WARN] config reload failed, keeping previous config: %v", err)
		return
	}
	log.Printf("[INFO] config reloaded from %s", r.globalDir)
	r.onReload(cfg)
}
