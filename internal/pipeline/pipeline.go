// Package pipeline sequences the external tools, the metadata store
// and the file archiver into the measurement-generation run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SGullin/arpa/internal/archive"
	"github.com/SGullin/arpa/internal/archivist"
	"github.com/SGullin/arpa/internal/checksum"
	"github.com/SGullin/arpa/internal/config"
	"github.com/SGullin/arpa/internal/diagnostics"
	"github.com/SGullin/arpa/internal/header"
	"github.com/SGullin/arpa/internal/logging"
	"github.com/SGullin/arpa/internal/model"
	"github.com/SGullin/arpa/internal/parse"
	"github.com/SGullin/arpa/internal/tools"
)

// ChecksumMismatchError reports a file whose content no longer matches
// its stored checksum.
type ChecksumMismatchError struct {
	Path string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum of %q does not match its stored value", e.Path)
}

// UnexpectedFormatError reports measurement output without the
// expected format marker.
type UnexpectedFormatError struct {
	Output string
}

func (e *UnexpectedFormatError) Error() string {
	return fmt.Sprintf("expected FORMAT 1 measurement output, got: %s", e.Output)
}

// Pipeline wires the collaborators of a measurement run.
type Pipeline struct {
	Config   *config.Config
	Store    *archivist.Store
	PSRChive *tools.PSRChive
	Archiver *archive.Archiver
	Logger   logging.Logger
	// Observer receives progress reports; nil means no reporting.
	Observer Observer
}

// New assembles a Pipeline from the configuration. The archiver
// follows the configured move policy.
func New(
	cfg *config.Config,
	store *archivist.Store,
	psrchive *tools.PSRChive,
	logger logging.Logger,
	observer Observer,
) *Pipeline {
	return &Pipeline{
		Config:   cfg,
		Store:    store,
		PSRChive: psrchive,
		Archiver: archive.New(
			cfg.Behaviour.MoveRawFiles,
			cfg.Behaviour.ChecksumBlockSize,
			logger,
		),
		Logger:   logger,
		Observer: observer,
	}
}

func (p *Pipeline) emit(s Status) {
	if p.Observer != nil {
		p.Observer(s)
	}
}

// toaMeta is the intermediate state between measurement generation
// and storage.
type toaMeta struct {
	lines    []string
	name     string
	channels int
	subints  int
	intMJD   int
	secs     int
}

// Cook runs the whole pipeline on resolved inputs: manipulate a
// working copy, generate measurements, and store the process, the
// measurements and their diagnostics in one transaction. The
// ephemeris may be nil.
func (p *Pipeline) Cook(
	ctx context.Context,
	userID int64,
	raw *model.RawMeta,
	ephemeris *model.ParMeta,
	template *model.TemplateMeta,
) error {
	if err := p.cook(ctx, userID, raw, ephemeris, template); err != nil {
		p.emit(Status{Stage: StageError, Err: err.Error()})
		return err
	}
	return nil
}

func (p *Pipeline) cook(
	ctx context.Context,
	userID int64,
	raw *model.RawMeta,
	ephemeris *model.ParMeta,
	template *model.TemplateMeta,
) error {
	start := time.Now()

	pulsar, err := archivist.Get[model.PulsarMeta](ctx, p.Store, raw.PulsarID)
	if err != nil {
		return err
	}

	status := Status{
		Stage:       StageStarting,
		RawPath:     raw.FilePath,
		RawID:       raw.ID(),
		PulsarAlias: pulsar.Alias,
		PulsarID:    raw.PulsarID,
		TemplateID:  template.ID(),
	}
	if ephemeris != nil {
		status.HasPar = true
		status.ParPath = ephemeris.FilePath
		status.ParID = ephemeris.ID()
	}
	p.emit(status)

	workingPath := filepath.Join(p.Config.Paths.TempDir, "working.ar")
	if err := p.manipulate(raw, ephemeris, workingPath); err != nil {
		return err
	}

	meta, err := p.generateTOAs(template, workingPath)
	if err != nil {
		return err
	}

	if err := p.Store.StartTransaction(ctx); err != nil {
		return err
	}
	defer p.Store.Abandon()

	processID, toaIDs, err := p.archiveTOAs(
		ctx, meta, userID, raw, ephemeris, template,
	)
	if err != nil {
		return err
	}

	if err := p.doDiagnostics(ctx, workingPath, processID, meta, toaIDs); err != nil {
		return err
	}

	if err := p.Store.CommitTransaction(); err != nil {
		return err
	}

	elapsed := time.Since(start)
	p.Logger.Info("finished", "elapsed", FormatElapsed(elapsed))
	p.emit(Status{Stage: StageFinished, Elapsed: elapsed})
	return nil
}

// manipulate builds the scrunched working copy the measurement tool
// reads: a copy of the raw file, with the ephemeris installed when one
// was given.
func (p *Pipeline) manipulate(
	raw *model.RawMeta,
	ephemeris *model.ParMeta,
	workingPath string,
) error {
	p.emit(Status{
		Stage:       StageCopying,
		Source:      raw.FilePath,
		Destination: workingPath,
	})
	p.Logger.Debug("copying", "from", raw.FilePath, "to", workingPath)
	if err := copyFile(raw.FilePath, workingPath); err != nil {
		return err
	}

	if ephemeris != nil {
		p.emit(Status{Stage: StageInstallingEphemeris})
		_, err := p.PSRChive.Run(
			"pam", "-m", "-E", ephemeris.FilePath, "--update_dm", workingPath,
		)
		if err != nil {
			return err
		}
	}

	p.emit(Status{Stage: StageManipulating})
	return p.scrunch(workingPath, 1, 4)
}

// scrunch reduces the file in place to the given dimensions.
func (p *Pipeline) scrunch(path string, nSubints, nChannels int) error {
	p.Logger.Debug("manipulating file", "path", path)
	_, err := p.PSRChive.Run(
		"pam", "-m", "-p",
		"--setnchn", fmt.Sprint(nChannels),
		"--setnsub", fmt.Sprint(nSubints),
		path,
	)
	return err
}

func (p *Pipeline) generateTOAs(
	template *model.TemplateMeta,
	workingPath string,
) (*toaMeta, error) {
	p.emit(Status{Stage: StageVerifyingTemplate})
	sum, err := checksum.File(
		template.FilePath, p.Config.Behaviour.ChecksumBlockSize,
	)
	if err != nil {
		return nil, err
	}
	if sum != template.Checksum {
		return nil, &ChecksumMismatchError{Path: template.FilePath}
	}

	p.emit(Status{Stage: StageGeneratingTOAs})
	p.Logger.Info("generating TOAs")
	out, err := p.PSRChive.Run(
		"pat",
		"-f", "tempo2",
		"-A", p.Config.Behaviour.TOAFitting,
		"-s", template.FilePath,
		"-C", "gof length bw nbin nchan nsubint",
		workingPath,
	)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(out, "FORMAT 1") {
		return nil, &UnexpectedFormatError{Output: out}
	}
	p.Logger.Debug("got toas")

	// Drop the format specifier, keep the measurement lines.
	var lines []string
	for _, line := range strings.Split(out, "\n")[1:] {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	p.emit(Status{Stage: StageGotTOAs, Count: len(lines)})

	// The tool has rewritten the working file, so its header is
	// current again.
	values, err := header.Items(
		p.PSRChive, workingPath,
		[]string{"nchan", "nsub", "name", "intmjd", "fracmjd"},
	)
	if err != nil {
		return nil, err
	}
	p.Logger.Debug("got header")

	channels, err := parse.Int(values[1])
	if err != nil {
		return nil, err
	}
	subints, err := parse.Int(values[2])
	if err != nil {
		return nil, err
	}
	intMJD, err := parse.Int(values[4])
	if err != nil {
		return nil, err
	}
	fracMJD, err := parse.Float(values[5])
	if err != nil {
		return nil, err
	}

	return &toaMeta{
		lines:    lines,
		name:     values[3],
		channels: channels,
		subints:  subints,
		intMJD:   intMJD,
		secs:     int(math.Round(fracMJD * 24 * 3600)),
	}, nil
}

// archiveTOAs stores the process record and one measurement row per
// output line, returning the process id and the measurement ids.
func (p *Pipeline) archiveTOAs(
	ctx context.Context,
	meta *toaMeta,
	userID int64,
	raw *model.RawMeta,
	ephemeris *model.ParMeta,
	template *model.TemplateMeta,
) (int64, []int64, error) {
	p.emit(Status{Stage: StageLoggingProcess})
	p.Logger.Debug("inserting process info")

	process := &model.ProcessInfo{
		RawID:      raw.ID(),
		TemplateID: template.ID(),
		NChannels:  meta.channels,
		NSubints:   meta.subints,
		Method:     p.Config.Behaviour.TOAFitting,
		UserID:     userID,
	}
	if ephemeris != nil {
		id := ephemeris.ID()
		process.ParID = &id
	}
	processID, err := p.Store.Insert(ctx, process)
	if err != nil {
		return 0, nil, err
	}

	p.emit(Status{Stage: StageParsingTOAs})
	p.Logger.Debug("parsing toas")
	infos := make([]*model.TOAInfo, 0, len(meta.lines))
	for _, line := range meta.lines {
		toa, err := ParseTempo2Line(line)
		if err != nil {
			return 0, nil, err
		}
		infos = append(infos, &model.TOAInfo{
			ProcessID:  processID,
			TemplateID: template.ID(),
			RawID:      raw.ID(),
			PulsarID:   raw.PulsarID,
			ObserverID: raw.ObserverID,
			TOAInt:     toa.MJDInt,
			TOAFrac:    toa.MJDFrac,
			TOAErr:     toa.Error,
			Frequency:  toa.Frequency,
		})
	}

	ids := make([]int64, 0, len(infos))
	for _, info := range infos {
		id, err := p.Store.Insert(ctx, info)
		if err != nil {
			return 0, nil, err
		}
		ids = append(ids, id)
	}

	p.Logger.Info("uploaded TOAs", "count", len(ids))
	p.emit(Status{Stage: StageArchivedTOAs, Count: len(ids)})
	return processID, ids, nil
}

// doDiagnostics runs the configured diagnostics on the working copy.
// A failing diagnostic is logged and skipped; only infrastructure
// failures abort.
func (p *Pipeline) doDiagnostics(
	ctx context.Context,
	workingPath string,
	processID int64,
	meta *toaMeta,
	toaIDs []int64,
) error {
	p.Logger.Info("creating diagnostics")

	h, err := header.Read(p.PSRChive, workingPath)
	if err != nil {
		return err
	}
	directory := h.IntendedDirectory(p.Config.Paths.RawFileStorage)

	// Diagnostics live next to the raw file, with a crossref link at
	// the top of the diagnostics tree.
	diagPath := filepath.Join(directory, fmt.Sprintf("process%d", processID))
	crossref := filepath.Join(
		p.Config.Paths.DiagnosticsDir, fmt.Sprintf("process%d", processID),
	)
	if err := os.Symlink(diagPath, crossref); err != nil {
		p.Logger.Warn("could not create crossref link", "error", err)
	}

	runner := &diagnostics.Runner{
		Config:   p.Config,
		PSRChive: p.PSRChive,
		Archiver: p.Archiver,
		Store:    p.Store,
		Logger:   p.Logger,
	}

	names := p.Config.Behaviour.Diagnostics
	p.emit(Status{Stage: StageDiagnosing, Count: len(names)})
	for _, name := range names {
		err := runner.Run(ctx, name, processID, workingPath, diagPath)
		if err != nil {
			p.Logger.Error("diagnostic failed, continuing anyway",
				"diagnostic", name, "error", err)
		}
		p.emit(Status{
			Stage:      StageFinishedDiagnostic,
			Diagnostic: name,
			Passed:     err == nil,
		})
	}

	return p.archiveTOAPlots(ctx, processID, diagPath, meta, toaIDs)
}

// archiveTOAPlots moves the per-measurement residual plots, when the
// measurement tool produced any, next to the other diagnostics.
func (p *Pipeline) archiveTOAPlots(
	ctx context.Context,
	processID int64,
	diagPath string,
	meta *toaMeta,
	toaIDs []int64,
) error {
	plotPath := filepath.Join(p.Config.Paths.TempDir, "toa_diag.png")
	if _, err := os.Stat(plotPath); err != nil {
		p.Logger.Warn("TOA diagnostic plot not found")
		p.emit(Status{Stage: StageArchivedTOAPlots, Passed: false})
		return nil
	}

	basePath := filepath.Join(diagPath, fmt.Sprintf(
		"%s_%05d_%05d", meta.name, meta.intMJD, meta.secs,
	))
	for i, id := range toaIDs {
		source := plotPath
		if i > 0 {
			source = fmt.Sprintf("%s_%d", plotPath, i+1)
		}
		destination := fmt.Sprintf("%s.TOA%d.png", basePath, id)

		if err := os.Rename(source, destination); err != nil {
			return err
		}
		plot := &model.DiagnosticPlot{
			ProcessID:  processID,
			Diagnostic: "Prof-Temp Residuals",
			FilePath:   destination,
		}
		if _, err := p.Store.Insert(ctx, plot); err != nil {
			return err
		}
	}

	p.Logger.Info("inserted plots", "count", len(toaIDs))
	p.emit(Status{
		Stage:  StageArchivedTOAPlots,
		Count:  len(toaIDs),
		Passed: true,
	})
	return nil
}

func copyFile(source, destination string) error {
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("opening %s: %w", source, err)
	}
	defer in.Close()

	out, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("creating %s: %w", destination, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying to %s: %w", destination, err)
	}
	return out.Close()
}
