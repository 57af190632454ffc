// Package diagnostics runs the per-process diagnostic tools and files
// their results alongside the process record.
package diagnostics

import (
	"context"
	"fmt"

	"github.com/SGullin/arpa/internal/archive"
	"github.com/SGullin/arpa/internal/archivist"
	"github.com/SGullin/arpa/internal/config"
	"github.com/SGullin/arpa/internal/logging"
	"github.com/SGullin/arpa/internal/model"
	"github.com/SGullin/arpa/internal/tools"
)

// UnknownDiagnosticError reports a configured diagnostic with no
// implementation behind it.
type UnknownDiagnosticError struct {
	Name string
}

func (e *UnknownDiagnosticError) Error() string {
	return fmt.Sprintf("unknown diagnostic %q", e.Name)
}

// BadPlotFileError reports a file without usable dimensions to plot.
type BadPlotFileError struct {
	Path string
}

func (e *BadPlotFileError) Error() string {
	return fmt.Sprintf("file %q has nothing to plot", e.Path)
}

// Output is what one diagnostic produced: either a plot on disk or a
// single value, never both.
type Output struct {
	PlotPath string
	Value    float64
}

// Runner dispatches diagnostics by name and stores their outputs.
type Runner struct {
	Config   *config.Config
	PSRChive *tools.PSRChive
	Archiver *archive.Archiver
	Store    *archivist.Store
	Logger   logging.Logger
}

// Run executes one named diagnostic against a cooked file and records
// the result for the given process. Plots are archived under the
// process directory first.
func (r *Runner) Run(
	ctx context.Context,
	name string,
	processID int64,
	file string,
	directory string,
) error {
	var out *Output
	var err error

	switch name {
	case "snr":
		out, err = r.snr(file)
	case "composite":
		out, err = r.composite(file)
	default:
		return &UnknownDiagnosticError{Name: name}
	}
	if err != nil {
		return err
	}

	if out.PlotPath != "" {
		_, path, err := r.Archiver.Archive(
			out.PlotPath, directory, name+".png",
		)
		if err != nil {
			return fmt.Errorf("archiving %s plot: %w", name, err)
		}

		meta := &model.DiagnosticPlot{
			ProcessID:  processID,
			Diagnostic: name,
			FilePath:   path,
		}
		if _, err := r.Store.Insert(ctx, meta); err != nil {
			return err
		}
		return nil
	}

	meta := &model.DiagnosticFloat{
		ProcessID:  processID,
		Diagnostic: name,
		Result:     out.Value,
	}
	if _, err := r.Store.Insert(ctx, meta); err != nil {
		return err
	}
	return nil
}
