// Package persona provides the identity instructions at the top of every
// system prompt. The embedded default can be overridden by a PERSONA.md in
// the data directory, reloaded live when the file changes.
package persona

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/chitralabs/chitra/internal/llm"
	"github.com/chitralabs/chitra/internal/logging"
)

// FileName is the override file looked up in the data directory.
const FileName = "PERSONA.md"

// Loader serves the current identity text and watches the override file.
type Loader struct {
	mu       sync.RWMutex
	identity string
	path     string
	watcher  *fsnotify.Watcher
}

// NewLoader reads PERSONA.md from dataDir when present, falling back to the
// built-in identity, and starts watching the directory for changes.
func NewLoader(dataDir string) *Loader {
	l := &Loader{
		identity: llm.SystemIdentity,
		path:     filepath.Join(dataDir, FileName),
	}
	l.reload()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warnf("Persona watcher unavailable: %v", err)
		return l
	}
	if err := watcher.Add(dataDir); err != nil {
		logging.Warnf("Persona watcher could not watch %s: %v", dataDir, err)
		watcher.Close()
		return l
	}
	l.watcher = watcher
	go l.watch()
	return l
}

// Identity returns the current identity instructions.
func (l *Loader) Identity() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.identity
}

// Close stops the file watcher.
func (l *Loader) Close() error {
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}

func (l *Loader) reload() {
	data, err := os.ReadFile(l.path)
	text := llm.SystemIdentity
	if err == nil {
		if custom := strings.TrimSpace(string(data)); custom != "" {
			text = custom
		}
	}

	l.mu.Lock()
	l.identity = text
	l.mu.Unlock()
}

func (l *Loader) watch() {
	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != FileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				l.reload()
				logging.Infof("Persona reloaded from %s", l.path)
			}
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			logging.Warnf("Persona watcher error: %v", err)
		}
	}
}
