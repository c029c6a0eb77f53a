package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watch blocks reloading the workbook whenever the file changes, until the
// context is canceled. The parent directory is watched rather than the file
// itself: editors typically replace the file, which drops a direct watch.
func (a *App) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(a.cfg.WorkbookPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	a.logger.Info("Watching workbook for changes.", "path", a.cfg.WorkbookPath)

	target, err := filepath.Abs(a.cfg.WorkbookPath)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			a.logger.Debug("Workbook changed, reloading.", "op", event.Op.String())
			a.reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Error("File watcher error.", "error", err)
		}
	}
}

// reload replaces the engine contents with the current file state. A file
// that fails to parse leaves the previous state in place.
func (a *App) reload() {
	if err := a.loadWorkbook(); err != nil {
		a.logger.Error("Reload failed.", "error", err)
		return
	}
	a.printCells()
}
