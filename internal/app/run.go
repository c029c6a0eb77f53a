package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/vk/gridcell/internal/ctxlog"
)

// Run executes the main application logic: load the workbook, evaluate it,
// print the result, and optionally keep watching the file for changes.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if err := a.loadWorkbook(); err != nil {
		return err
	}
	a.printCells()

	if a.cfg.Watch {
		return a.watch(ctx)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// loadWorkbook reads the workbook file into the engine, replacing whatever
// is there, and evaluates every cell in dependency order.
func (a *App) loadWorkbook() error {
	f, err := os.Open(a.cfg.WorkbookPath)
	if err != nil {
		return fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	if err := a.eng.Replace(f); err != nil {
		return fmt.Errorf("loading workbook %s: %w", a.cfg.WorkbookPath, err)
	}
	if err := a.eng.Recalculate(); err != nil {
		return fmt.Errorf("evaluating workbook %s: %w", a.cfg.WorkbookPath, err)
	}

	a.logger.Info("Workbook evaluated.", "path", a.cfg.WorkbookPath)
	return nil
}

// printCells writes one aligned row per cell: id, definition, and either the
// rendered value or the stored error.
func (a *App) printCells() {
	tw := tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CELL\tDEFINITION\tVALUE")
	for _, info := range a.eng.Snapshot() {
		result := info.Value.String()
		if info.Error != "" {
			result = "!ERROR: " + info.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", info.ID, info.Definition, result)
	}
	tw.Flush()
}
