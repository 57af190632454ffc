package pipeline

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SGullin/arpa/internal/archivist"
	"github.com/SGullin/arpa/internal/checksum"
	"github.com/SGullin/arpa/internal/config"
	"github.com/SGullin/arpa/internal/logging"
	"github.com/SGullin/arpa/internal/model"
	"github.com/SGullin/arpa/internal/testutil"
	"github.com/SGullin/arpa/internal/tools"
)

const patOutput = "FORMAT 1\n" +
	"working.ar 1382.391 58849.567891234 1.204 pks\n" +
	"working.ar 1383.502 58849.667891234 1.310 pks\n"

// The five-key header read after measurement generation.
const vapScrunched = "working.ar 4 1 vela 58849 0.5"

// The full header read before diagnostics.
const vapFull = "working.ar " +
	"1024 4 1 1 " +
	"Pulsar pks vela -45:10:34.8 08:35:20.6 " +
	"1382.0 -256.0 67.99 0.0 " +
	"FluxDensity Intensity 256.9 " +
	"multi lin cpsr2 58849.5"

// cookWorld is a migrated store with one registered pulsar, observing
// system, raw file and template, plus a scripted tool runner.
type cookWorld struct {
	store    *archivist.Store
	runner   *testutil.ScriptedRunner
	cfg      *config.Config
	pulsarID int64
	raw      *model.RawMeta
	template *model.TemplateMeta
	statuses []Status
	pipe     *Pipeline
}

func newCookWorld(t *testing.T) *cookWorld {
	t.Helper()
	ctx := context.Background()

	w := &cookWorld{
		store:  testutil.NewTestStore(t),
		runner: testutil.NewScriptedRunner(),
	}

	base := t.TempDir()
	w.cfg = config.NewConfig(base)
	w.cfg.Behaviour.Diagnostics = []string{"snr"}
	require.NoError(t, os.MkdirAll(w.cfg.Paths.TempDir, 0o755))
	require.NoError(t, os.MkdirAll(w.cfg.Paths.DiagnosticsDir, 0o755))

	pulsar := &model.PulsarMeta{Alias: "vela"}
	var err error
	w.pulsarID, err = w.store.Insert(ctx, pulsar)
	require.NoError(t, err)

	telescope := &model.TelescopeID{
		Name: "parkes", Abbreviation: "pks", Code: "7",
	}
	telescopeID, err := w.store.Insert(ctx, telescope)
	require.NoError(t, err)

	system := &model.ObsSystem{
		Name:        "pks_multi_cpsr2",
		TelescopeID: telescopeID,
		Frontend:    "multi",
		Backend:     "cpsr2",
		Clock:       "utc",
		Code:        "a",
	}
	systemID, err := w.store.Insert(ctx, system)
	require.NoError(t, err)

	blockSize := w.cfg.Behaviour.ChecksumBlockSize
	rawPath := testutil.WriteFile(t, base, "obs_0001.ar", []byte("raw data"))
	sum, err := checksum.File(rawPath, blockSize)
	require.NoError(t, err)
	w.raw = &model.RawMeta{
		FilePath:   rawPath,
		Checksum:   sum,
		PulsarID:   w.pulsarID,
		ObserverID: systemID,
	}
	_, err = w.store.Insert(ctx, w.raw)
	require.NoError(t, err)

	templatePath := testutil.WriteFile(
		t, base, "standard.tpl", []byte("template data"),
	)
	w.template, err = model.NewTemplateMeta(
		templatePath, w.pulsarID, blockSize,
	)
	require.NoError(t, err)
	_, err = w.store.Insert(ctx, w.template)
	require.NoError(t, err)

	require.NoError(t, w.store.CommitTransaction())

	w.runner.Respond("pat", patOutput)
	w.runner.RespondOnce("vap", vapScrunched)
	w.runner.RespondOnce("vap", vapFull)
	w.runner.Respond("psrstat", "25.3\n")

	w.pipe = New(
		w.cfg,
		w.store,
		&tools.PSRChive{Runner: w.runner},
		logging.NewNopLogger(),
		func(s Status) { w.statuses = append(w.statuses, s) },
	)
	return w
}

func (w *cookWorld) stages() []Stage {
	out := make([]Stage, 0, len(w.statuses))
	for _, s := range w.statuses {
		out = append(out, s.Stage)
	}
	return out
}

func TestCook_FullRun(t *testing.T) {
	ctx := context.Background()
	w := newCookWorld(t)

	require.NoError(t, w.pipe.Cook(ctx, 0, w.raw, nil, w.template))
	assert.False(t, w.store.Live(), "run must leave no open transaction")

	processes, err := archivist.GetAll[model.ProcessInfo](ctx, w.store)
	require.NoError(t, err)
	require.Len(t, processes, 1)
	process := processes[0]
	assert.Equal(t, w.raw.ID(), process.RawID)
	assert.Equal(t, w.template.ID(), process.TemplateID)
	assert.Nil(t, process.ParID)
	assert.Equal(t, 4, process.NChannels)
	assert.Equal(t, 1, process.NSubints)
	assert.Equal(t, "FDM", process.Method)

	toas, err := archivist.GetAll[model.TOAInfo](ctx, w.store)
	require.NoError(t, err)
	require.Len(t, toas, 2)
	assert.Equal(t, int64(58849), toas[0].TOAInt)
	assert.InDelta(t, 0.567891234, toas[0].TOAFrac, 1e-12)
	assert.InDelta(t, 1382.391, toas[0].Frequency, 1e-9)
	assert.InDelta(t, 1.204, toas[0].TOAErr, 1e-9)
	assert.Equal(t, process.ID(), toas[0].ProcessID)
	assert.Equal(t, w.pulsarID, toas[0].PulsarID)
	assert.Equal(t, w.raw.ObserverID, toas[0].ObserverID)

	floats, err := archivist.GetAll[model.DiagnosticFloat](ctx, w.store)
	require.NoError(t, err)
	require.Len(t, floats, 1)
	assert.Equal(t, "snr", floats[0].Diagnostic)
	assert.InDelta(t, 25.3, floats[0].Result, 1e-9)

	stages := w.stages()
	assert.Equal(t, StageStarting, stages[0])
	assert.Equal(t, StageFinished, stages[len(stages)-1])
	assert.NotContains(t, stages, StageInstallingEphemeris)
	assert.NotContains(t, stages, StageError)

	// No measurement plot file was produced, so that step reports a
	// failure without aborting the run.
	for _, s := range w.statuses {
		if s.Stage == StageArchivedTOAPlots {
			assert.False(t, s.Passed)
		}
	}

	// Only the scrunch, no ephemeris install.
	assert.Len(t, w.runner.CallsTo("pam"), 1)
}

func TestCook_WithEphemeris(t *testing.T) {
	ctx := context.Background()
	w := newCookWorld(t)

	parPath := testutil.WriteFile(
		t, t.TempDir(), "vela.par", []byte("PSRJ J0835-4510\n"),
	)
	par, err := model.NewParMeta(
		parPath, w.pulsarID, w.cfg.Behaviour.ChecksumBlockSize,
	)
	require.NoError(t, err)
	_, err = w.store.Insert(ctx, par)
	require.NoError(t, err)
	require.NoError(t, w.store.CommitTransaction())

	require.NoError(t, w.pipe.Cook(ctx, 0, w.raw, par, w.template))

	calls := w.runner.CallsTo("pam")
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].ArgString(), "-E "+parPath)
	assert.Contains(t, calls[0].ArgString(), "--update_dm")

	processes, err := archivist.GetAll[model.ProcessInfo](ctx, w.store)
	require.NoError(t, err)
	require.Len(t, processes, 1)
	require.NotNil(t, processes[0].ParID)
	assert.Equal(t, par.ID(), *processes[0].ParID)

	assert.Contains(t, w.stages(), StageInstallingEphemeris)
}

func TestCook_FailingDiagnosticContinues(t *testing.T) {
	ctx := context.Background()
	w := newCookWorld(t)
	w.runner.Fail("psrstat", errors.New("boom"))

	require.NoError(t, w.pipe.Cook(ctx, 0, w.raw, nil, w.template))

	var finished *Status
	for i, s := range w.statuses {
		if s.Stage == StageFinishedDiagnostic {
			finished = &w.statuses[i]
		}
	}
	require.NotNil(t, finished)
	assert.Equal(t, "snr", finished.Diagnostic)
	assert.False(t, finished.Passed)

	// The measurements still commit.
	toas, err := archivist.GetAll[model.TOAInfo](ctx, w.store)
	require.NoError(t, err)
	assert.Len(t, toas, 2)

	floats, err := archivist.GetAll[model.DiagnosticFloat](ctx, w.store)
	require.NoError(t, err)
	assert.Empty(t, floats)
}

func TestCook_BadMeasurementFormat(t *testing.T) {
	ctx := context.Background()
	w := newCookWorld(t)
	w.runner.Respond("pat", "no measurements today")

	err := w.pipe.Cook(ctx, 0, w.raw, nil, w.template)
	var format *UnexpectedFormatError
	require.ErrorAs(t, err, &format)

	stages := w.stages()
	assert.Equal(t, StageError, stages[len(stages)-1])
	assert.False(t, w.store.Live())

	processes, err := archivist.GetAll[model.ProcessInfo](ctx, w.store)
	require.NoError(t, err)
	assert.Empty(t, processes)
}

func TestCook_TemplateChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	w := newCookWorld(t)

	// The file changed on disk after its metadata was stored.
	require.NoError(t, os.WriteFile(
		w.template.FilePath, []byte("tampered"), 0o644,
	))

	err := w.pipe.Cook(ctx, 0, w.raw, nil, w.template)
	var mismatch *ChecksumMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, w.template.FilePath, mismatch.Path)

	assert.Empty(t, w.runner.CallsTo("pat"))
}

func TestCook_FailedToolAborts(t *testing.T) {
	ctx := context.Background()
	w := newCookWorld(t)
	w.runner.Fail("pam", errors.New("no such archive"))

	err := w.pipe.Cook(ctx, 0, w.raw, nil, w.template)
	require.Error(t, err)

	toas, err := archivist.GetAll[model.TOAInfo](ctx, w.store)
	require.NoError(t, err)
	assert.Empty(t, toas)
}
