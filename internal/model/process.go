package model

import "github.com/SGullin/arpa/internal/archivist"

// ProcessInfo records one pipeline run: the inputs it consumed and the
// manipulation parameters it applied. No uniqueness constraints.
type ProcessInfo struct {
	id int64

	// RawID is the raw file consumed.
	RawID int64
	// ParID is the ephemeris used, if any.
	ParID *int64
	// TemplateID is the template used.
	TemplateID int64
	// NChannels is the number of frequency channels after scrunching.
	NChannels int
	// NSubints is the number of subintervals after scrunching.
	NSubints int
	// Method is the timing-fit method name.
	Method string
	// UserID is the user that launched the run.
	UserID int64
}

var _ archivist.Entity = (*ProcessInfo)(nil)

func (*ProcessInfo) Table() archivist.Table { return archivist.TableProcessMetas }
func (p *ProcessInfo) ID() int64            { return p.id }
func (p *ProcessInfo) SetID(id int64)       { p.id = id }

func (*ProcessInfo) InsertColumns() []string {
	return []string{"raw_id", "par_id", "template_id", "n_channels", "n_subints", "method", "user_id"}
}
func (p *ProcessInfo) InsertValues() []any {
	return []any{p.RawID, p.ParID, p.TemplateID, p.NChannels, p.NSubints, p.Method, p.UserID}
}
func (*ProcessInfo) SelectColumns() []string {
	return []string{"id", "raw_id", "par_id", "template_id", "n_channels", "n_subints", "method", "user_id"}
}
func (p *ProcessInfo) ScanDests() []any {
	return []any{&p.id, &p.RawID, &p.ParID, &p.TemplateID, &p.NChannels, &p.NSubints, &p.Method, &p.UserID}
}
func (*ProcessInfo) UniqueColumns() []string { return nil }
func (*ProcessInfo) UniqueValues() []any     { return nil }

// TOAInfo is one extracted timing measurement.
//
// The arrival time is stored as an integer day plus a fractional day.
// The two parts must never be collapsed into one float: a single 64-bit
// float cannot retain the needed precision at MJD magnitudes.
type TOAInfo struct {
	id int64

	// ProcessID is the process that generated this measurement.
	ProcessID int64
	// TemplateID is the template used.
	TemplateID int64
	// RawID is the raw file used.
	RawID int64

	// PulsarID is the pulsar this belongs to.
	PulsarID int64
	// ObserverID is the observing system that made the raw data.
	ObserverID int64
	// TOAInt is the integer (day) part of the arrival time.
	TOAInt int64
	// TOAFrac is the fractional (day) part of the arrival time.
	TOAFrac float64
	// TOAErr is the measurement error, in microseconds.
	TOAErr float64
	// Frequency is the observing frequency, in MHz.
	Frequency float64
}

var _ archivist.Entity = (*TOAInfo)(nil)

func (*TOAInfo) Table() archivist.Table { return archivist.TableTOAs }
func (t *TOAInfo) ID() int64            { return t.id }
func (t *TOAInfo) SetID(id int64)       { t.id = id }

func (*TOAInfo) InsertColumns() []string {
	return []string{
		"process_id", "template_id", "rawfile_id",
		"pulsar_id", "observer_id",
		"toa_int", "toa_frac", "toa_err", "frequency",
	}
}
func (t *TOAInfo) InsertValues() []any {
	return []any{
		t.ProcessID, t.TemplateID, t.RawID,
		t.PulsarID, t.ObserverID,
		t.TOAInt, t.TOAFrac, t.TOAErr, t.Frequency,
	}
}
func (*TOAInfo) SelectColumns() []string {
	return []string{
		"id",
		"process_id", "template_id", "rawfile_id",
		"pulsar_id", "observer_id",
		"toa_int", "toa_frac", "toa_err", "frequency",
	}
}
func (t *TOAInfo) ScanDests() []any {
	return []any{
		&t.id,
		&t.ProcessID, &t.TemplateID, &t.RawID,
		&t.PulsarID, &t.ObserverID,
		&t.TOAInt, &t.TOAFrac, &t.TOAErr, &t.Frequency,
	}
}
func (*TOAInfo) UniqueColumns() []string { return nil }
func (*TOAInfo) UniqueValues() []any     { return nil }
