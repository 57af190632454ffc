package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SGullin/arpa/internal/archivist"
	"github.com/SGullin/arpa/internal/checksum"
	"github.com/SGullin/arpa/internal/model"
	"github.com/SGullin/arpa/internal/testutil"
	"github.com/SGullin/arpa/internal/tools"
)

// rawHeader builds a full header response for a file on the fixture's
// observing system, targeting the named pulsar.
func rawHeader(file, pulsar string) string {
	return fmt.Sprintf(
		"%s 1024 4 1 8 "+
			"Pulsar pks %s -45:10:34.8 08:35:20.6 "+
			"1382.0 -256.0 67.99 0.0 "+
			"FluxDensity Intensity 256.9 "+
			"multi lin cpsr2 58849.5",
		file, pulsar,
	)
}

// freshTools swaps in a new scripted runner, discarding the queued
// cook-run responses the fixture sets up.
func (w *cookWorld) freshTools() *testutil.ScriptedRunner {
	runner := testutil.NewScriptedRunner()
	w.pipe.PSRChive = &tools.PSRChive{Runner: runner}
	return runner
}

func TestResolveRaw_ByID(t *testing.T) {
	ctx := context.Background()
	w := newCookWorld(t)

	raw, err := w.pipe.ResolveRaw(ctx, fmt.Sprint(w.raw.ID()))
	require.NoError(t, err)
	assert.Equal(t, w.raw.ID(), raw.ID())
	assert.Equal(t, w.raw.FilePath, raw.FilePath)
	assert.Equal(t, w.raw.Checksum, raw.Checksum)
}

func TestResolveRaw_UnknownID(t *testing.T) {
	ctx := context.Background()
	w := newCookWorld(t)

	_, err := w.pipe.ResolveRaw(ctx, "999")
	var missing *archivist.MissingIDError
	require.ErrorAs(t, err, &missing)
}

func TestResolveRaw_FromFile(t *testing.T) {
	ctx := context.Background()
	w := newCookWorld(t)

	jName := "J0835-4510"
	pulsar := &model.PulsarMeta{Alias: "vela2", JName: &jName}
	_, err := w.store.Insert(ctx, pulsar)
	require.NoError(t, err)
	require.NoError(t, w.store.CommitTransaction())

	path := testutil.WriteFile(
		t, t.TempDir(), "obs_0002.ar", []byte("second observation"),
	)
	w.cfg.Behaviour.ArchiveRawFiles = false
	runner := w.freshTools()
	runner.Respond("vap", rawHeader("obs_0002.ar", jName))

	raw, err := w.pipe.ResolveRaw(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, path, raw.FilePath)
	assert.Equal(t, pulsar.ID(), raw.PulsarID)
	assert.Equal(t, w.raw.ObserverID, raw.ObserverID)
	assert.NotEqual(t, checksum.Zero, raw.Checksum)
	assert.Positive(t, raw.ID())

	// Registration opened an implicit transaction the caller owns.
	assert.True(t, w.store.Live())
	require.NoError(t, w.store.CommitTransaction())
}

func TestResolveRaw_UnknownPulsarHardError(t *testing.T) {
	ctx := context.Background()
	w := newCookWorld(t)

	path := testutil.WriteFile(
		t, t.TempDir(), "obs_0003.ar", []byte("third observation"),
	)
	runner := w.freshTools()
	runner.Respond("vap", rawHeader("obs_0003.ar", "J1939+2134"))

	_, err := w.pipe.ResolveRaw(ctx, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auto-adding is off")
}

func TestResolveRaw_AutoAddsPulsar(t *testing.T) {
	ctx := context.Background()
	w := newCookWorld(t)
	w.cfg.Behaviour.AutoAddPulsars = true
	w.cfg.Behaviour.ArchiveRawFiles = false

	path := testutil.WriteFile(
		t, t.TempDir(), "obs_0004.ar", []byte("fourth observation"),
	)
	runner := w.freshTools()
	runner.Respond("vap", rawHeader("obs_0004.ar", "J1939+2134"))

	raw, err := w.pipe.ResolveRaw(ctx, path)
	require.NoError(t, err)
	require.NoError(t, w.store.CommitTransaction())

	added, err := archivist.Get[model.PulsarMeta](ctx, w.store, raw.PulsarID)
	require.NoError(t, err)
	assert.Equal(t, "J1939+2134", added.Alias)
}

func TestResolveRaw_MissingObsSystem(t *testing.T) {
	ctx := context.Background()
	w := newCookWorld(t)

	path := testutil.WriteFile(
		t, t.TempDir(), "obs_0005.ar", []byte("fifth observation"),
	)
	runner := w.freshTools()
	header := "obs_0005.ar 1024 4 1 8 " +
		"Pulsar gbt vela -45:10:34.8 08:35:20.6 " +
		"1382.0 -256.0 67.99 0.0 " +
		"FluxDensity Intensity 256.9 " +
		"rcvr1_2 lin guppi 58849.5"
	runner.Respond("vap", header)

	_, err := w.pipe.ResolveRaw(ctx, path)
	require.Error(t, err)
}

func TestResolveTemplate_ByID(t *testing.T) {
	ctx := context.Background()
	w := newCookWorld(t)

	template, err := w.pipe.ResolveTemplate(
		ctx, w.raw, fmt.Sprint(w.template.ID()),
	)
	require.NoError(t, err)
	assert.Equal(t, w.template.ID(), template.ID())
	assert.Equal(t, w.template.Checksum, template.Checksum)
}

func TestResolveTemplate_DuplicateContentReused(t *testing.T) {
	ctx := context.Background()
	w := newCookWorld(t)

	// Same bytes at a new path; the stored entry wins.
	duplicate := testutil.WriteFile(
		t, t.TempDir(), "copy.tpl", []byte("template data"),
	)
	template, err := w.pipe.ResolveTemplate(ctx, w.raw, duplicate)
	require.NoError(t, err)
	assert.Equal(t, w.template.ID(), template.ID())
	assert.Equal(t, w.template.FilePath, template.FilePath)
	assert.False(t, w.store.Live(), "reuse must not write anything")
}

func TestResolveTemplate_NewContentRegistered(t *testing.T) {
	ctx := context.Background()
	w := newCookWorld(t)

	path := testutil.WriteFile(
		t, t.TempDir(), "other.tpl", []byte("different template"),
	)
	template, err := w.pipe.ResolveTemplate(ctx, w.raw, path)
	require.NoError(t, err)
	assert.NotEqual(t, w.template.ID(), template.ID())
	assert.Equal(t, w.raw.PulsarID, template.PulsarID)

	assert.True(t, w.store.Live())
	require.NoError(t, w.store.CommitTransaction())
}

func TestResolvePar_MissingFile(t *testing.T) {
	ctx := context.Background()
	w := newCookWorld(t)

	_, err := w.pipe.ResolvePar(ctx, w.raw, "/nowhere/vela.par")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing file")
}
