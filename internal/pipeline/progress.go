package pipeline

import (
	"fmt"
	"time"
)

// Stage identifies how far through a run the pipeline is.
type Stage int

const (
	// StageIdle means the pipeline is not active. It is never emitted
	// to an observer.
	StageIdle Stage = iota
	// StageError carries a failure description.
	StageError
	// StageStarting announces the resolved inputs.
	StageStarting
	// StageCopying announces the working-copy creation.
	StageCopying
	// StageInstallingEphemeris means an ephemeris was provided and is
	// being installed into the working copy.
	StageInstallingEphemeris
	// StageManipulating means the working copy is being scrunched.
	StageManipulating
	// StageVerifyingTemplate means the template checksum is being
	// re-verified against its stored value.
	StageVerifyingTemplate
	// StageGeneratingTOAs means the measurement tool is running.
	StageGeneratingTOAs
	// StageGotTOAs carries the number of received measurements.
	StageGotTOAs
	// StageLoggingProcess means the process record is being stored.
	StageLoggingProcess
	// StageParsingTOAs means the tool output is being parsed.
	StageParsingTOAs
	// StageArchivedTOAs carries the number of stored measurements.
	StageArchivedTOAs
	// StageDiagnosing carries the number of diagnostics to run.
	StageDiagnosing
	// StageFinishedDiagnostic reports one diagnostic's completion.
	StageFinishedDiagnostic
	// StageArchivedTOAPlots reports the per-measurement plots.
	StageArchivedTOAPlots
	// StageFinished carries the total run duration.
	StageFinished
)

// Status is one progress report from a pipeline run. Only the fields
// relevant to the Stage are set.
type Status struct {
	Stage Stage

	// Err describes the failure, for StageError.
	Err string

	// Input identification, for StageStarting.
	RawPath     string
	RawID       int64
	PulsarAlias string
	PulsarID    int64
	ParPath     string
	ParID       int64
	HasPar      bool
	TemplateID  int64

	// Source and Destination, for StageCopying.
	Source      string
	Destination string

	// Count is the measurement, diagnostic or plot count.
	Count int

	// Diagnostic and Passed, for StageFinishedDiagnostic. Passed is
	// also set for StageArchivedTOAPlots.
	Diagnostic string
	Passed     bool

	// Elapsed is the total duration, for StageFinished.
	Elapsed time.Duration
}

// Observer receives progress reports during a run. Callbacks happen on
// the calling goroutine; keep them quick.
type Observer func(Status)

func (s Status) String() string {
	switch s.Stage {
	case StageIdle:
		return "Idling..."
	case StageError:
		return fmt.Sprintf("Encountered error: %s", s.Err)

	case StageStarting:
		ephemeris := "(None)\n"
		if s.HasPar {
			ephemeris = fmt.Sprintf(
				"%s\n               id = %d", s.ParPath, s.ParID,
			)
		}
		return fmt.Sprintf(
			"Cooking with the following:"+
				"\n * Raw file:   %s"+
				"\n               id = %d"+
				"\n * Pulsar:     %s "+
				"\n               id = %d"+
				"\n * Ephemeride: %s"+
				"\n * Template:   id = %d\n",
			s.RawPath, s.RawID,
			s.PulsarAlias, s.PulsarID,
			ephemeris,
			s.TemplateID,
		)

	case StageCopying:
		return fmt.Sprintf("Copying from %s to %s", s.Source, s.Destination)
	case StageInstallingEphemeris:
		return "Installing ephemeride..."
	case StageManipulating:
		return "Manipulating..."
	case StageVerifyingTemplate:
		return "Verifying template..."
	case StageGeneratingTOAs:
		return "Generating TOAs..."
	case StageGotTOAs:
		return fmt.Sprintf("Got %d TOA(s)!", s.Count)
	case StageLoggingProcess:
		return "Logging process..."
	case StageParsingTOAs:
		return "Parsing TOAs..."
	case StageArchivedTOAs:
		return fmt.Sprintf("Archived %d TOA(s)!", s.Count)
	case StageDiagnosing:
		return fmt.Sprintf("Running %d diagnostic(s)...", s.Count)

	case StageFinishedDiagnostic:
		if s.Passed {
			return fmt.Sprintf(
				"Finished diagnostic %s with no problems.", s.Diagnostic,
			)
		}
		return fmt.Sprintf(
			"Finished diagnostic %s, but an error ocurred.", s.Diagnostic,
		)

	case StageArchivedTOAPlots:
		if s.Passed {
			return fmt.Sprintf(
				"Archived %d plot(s) from psrchive::pat.", s.Count,
			)
		}
		return "Failed to archive plot(s) from psrchive::pat."

	case StageFinished:
		return fmt.Sprintf("Finished in %s!", FormatElapsed(s.Elapsed))
	}
	return "Unknown status"
}

// FormatElapsed renders a duration at a human scale.
func FormatElapsed(d time.Duration) string {
	micros := d.Microseconds()
	if micros < 1000 {
		return fmt.Sprintf("%d μs", micros)
	}

	millis := micros / 1000
	if millis < 1000 {
		return fmt.Sprintf("%d ms", millis)
	}

	seconds := micros / 1_000_000
	if seconds < 60 {
		return fmt.Sprintf("%d s", seconds)
	}

	minutes := seconds / 60
	seconds -= 60 * minutes
	return fmt.Sprintf("%d m %d s", minutes, seconds)
}
