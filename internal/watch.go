package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	tt "github.com/restruct-labs/restruct/internal/types"
)

// debounce groups the burst of events an editor save produces.
const debounce = 100 * time.Millisecond

type watcher struct {
	fsw    *fsnotify.Watcher
	engine *Engine
	report func(path string, results []tt.Result)
	done   chan struct{}
}

// StartWatching re-refines interchange files under dirs whenever they
// change, handing each outcome to report.
func (e *Engine) StartWatching(dirs []string, report func(string, []tt.Result)) error {
	if e.watcher != nil {
		return fmt.Errorf("already watching")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	for _, dir := range dirs {
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return fsw.Add(path)
			}
			return nil
		})
		if err != nil {
			fsw.Close()
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	e.watcher = &watcher{fsw: fsw, engine: e, report: report, done: make(chan struct{})}
	go e.watcher.loop(e.logger)
	return nil
}

// StopWatching tears the watcher down. Safe to call when not watching.
func (e *Engine) StopWatching() error {
	if e.watcher == nil {
		return nil
	}
	w := e.watcher
	e.watcher = nil
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *watcher) loop(logger *zap.Logger) {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(logger, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Error("watch error", zap.Error(err))
		}
	}
}

func (w *watcher) handle(logger *zap.Logger, event fsnotify.Event) {
	if event.Op&fsnotify.Write != fsnotify.Write {
		return
	}
	if !strings.HasSuffix(event.Name, ".ast.json") {
		return
	}
	time.Sleep(debounce)
	results, err := w.engine.Run(event.Name)
	if err != nil {
		logger.Error("refining changed file", zap.String("file", event.Name), zap.Error(err))
		return
	}
	w.report(event.Name, results)
}
