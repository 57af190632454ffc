package model

import "github.com/SGullin/arpa/internal/archivist"

// DiagnosticFloat is a diagnostic result carrying a single value.
type DiagnosticFloat struct {
	id int64

	// ProcessID is the process this result belongs to.
	ProcessID int64
	// Diagnostic is the kind name, e.g. "snr".
	Diagnostic string
	// Result is the computed value.
	Result float64
}

var _ archivist.Entity = (*DiagnosticFloat)(nil)

func (*DiagnosticFloat) Table() archivist.Table { return archivist.TableDiagnosticFloats }
func (d *DiagnosticFloat) ID() int64            { return d.id }
func (d *DiagnosticFloat) SetID(id int64)       { d.id = id }

func (*DiagnosticFloat) InsertColumns() []string {
	return []string{"process_id", "diagnostic", "result"}
}
func (d *DiagnosticFloat) InsertValues() []any {
	return []any{d.ProcessID, d.Diagnostic, d.Result}
}
func (*DiagnosticFloat) SelectColumns() []string {
	return []string{"id", "process_id", "diagnostic", "result"}
}
func (d *DiagnosticFloat) ScanDests() []any {
	return []any{&d.id, &d.ProcessID, &d.Diagnostic, &d.Result}
}
func (*DiagnosticFloat) UniqueColumns() []string { return nil }
func (*DiagnosticFloat) UniqueValues() []any     { return nil }

// DiagnosticPlot is a diagnostic result carrying an archived plot.
type DiagnosticPlot struct {
	id int64

	// ProcessID is the process this result belongs to.
	ProcessID int64
	// Diagnostic is the kind name, e.g. "composite".
	Diagnostic string
	// FilePath is the archived plot location.
	FilePath string
}

var _ archivist.Entity = (*DiagnosticPlot)(nil)

func (*DiagnosticPlot) Table() archivist.Table { return archivist.TableDiagnosticPlots }
func (d *DiagnosticPlot) ID() int64            { return d.id }
func (d *DiagnosticPlot) SetID(id int64)       { d.id = id }

func (*DiagnosticPlot) InsertColumns() []string {
	return []string{"process_id", "diagnostic", "filepath"}
}
func (d *DiagnosticPlot) InsertValues() []any {
	return []any{d.ProcessID, d.Diagnostic, d.FilePath}
}
func (*DiagnosticPlot) SelectColumns() []string {
	return []string{"id", "process_id", "diagnostic", "filepath"}
}
func (d *DiagnosticPlot) ScanDests() []any {
	return []any{&d.id, &d.ProcessID, &d.Diagnostic, &d.FilePath}
}
func (*DiagnosticPlot) UniqueColumns() []string { return nil }
func (*DiagnosticPlot) UniqueValues() []any     { return nil }
