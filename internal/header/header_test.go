package header

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SGullin/arpa/internal/testutil"
	"github.com/SGullin/arpa/internal/tools"
)

const sampleVapOutput = "obs_0001.ar " +
	"1024 512 4 8 " +
	"Pulsar PKS J0437-4715 -47:15:09.1 04:37:15.9 " +
	"1382.0 -256.0 2.64476 1.3 " +
	"FluxDensity Stokes 256.944 " +
	"MULTI lin CPSR2 58849.5"

func scripted(t *testing.T) (*tools.PSRChive, *testutil.ScriptedRunner) {
	t.Helper()
	runner := testutil.NewScriptedRunner()
	return &tools.PSRChive{Runner: runner}, runner
}

func TestItems(t *testing.T) {
	ps, runner := scripted(t)
	runner.Respond("vap", "obs_0001.ar 1024 512")

	values, err := Items(ps, "obs_0001.ar", []string{"nbin", "nchan"})
	require.NoError(t, err)
	assert.Equal(t, []string{"obs_0001.ar", "1024", "512"}, values)

	calls := runner.CallsTo("vap")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].ArgString(), "-c nbin,nchan")
}

func TestItems_CountMismatch(t *testing.T) {
	ps, runner := scripted(t)
	runner.Respond("vap", "obs_0001.ar 1024")

	_, err := Items(ps, "obs_0001.ar", []string{"nbin", "nchan"})
	var count *KeyCountError
	require.ErrorAs(t, err, &count)
	assert.Equal(t, 3, count.Requested)
	assert.Equal(t, 2, count.Received)
}

func TestRead(t *testing.T) {
	ps, runner := scripted(t)
	runner.Respond("vap", sampleVapOutput)

	h, err := Read(ps, "obs_0001.ar")
	require.NoError(t, err)

	assert.Equal(t, "obs_0001.ar", h.Filename)
	assert.Equal(t, 1024, h.BinCount)
	assert.Equal(t, 512, h.ChannelCount)
	assert.Equal(t, 4, h.PolarizationCount)
	assert.Equal(t, 8, h.SubintCount)
	assert.Equal(t, "Pulsar", h.ObjectType)
	assert.Equal(t, "PKS", h.Telescope)
	assert.Equal(t, "J0437-4715", h.PsrName)
	assert.Equal(t, "-47:15:09.1", h.Dec)
	assert.Equal(t, "04:37:15.9", h.RA)
	assert.InDelta(t, 1382.0, h.Frequency, 1e-9)
	assert.InDelta(t, -256.0, h.Bandwidth, 1e-9)
	assert.InDelta(t, 2.64476, h.DispersionMeasure, 1e-9)
	assert.InDelta(t, 1.3, h.RotationMeasure, 1e-9)
	assert.Equal(t, "FluxDensity", h.Scale)
	assert.Equal(t, "Stokes", h.State)
	assert.InDelta(t, 256.944, h.Length, 1e-9)
	assert.Equal(t, "MULTI", h.Receiver)
	assert.Equal(t, "lin", h.Basis)
	assert.Equal(t, "CPSR2", h.Backend)
	assert.InDelta(t, 58849.5, h.Date, 1e-9)
}

func TestRead_BadValue(t *testing.T) {
	ps, runner := scripted(t)
	runner.Respond("vap", strings.Replace(sampleVapOutput, "1024", "lots", 1))

	_, err := Read(ps, "obs_0001.ar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lots")
}

func TestIntendedDirectory(t *testing.T) {
	h := &RawFileHeader{
		PsrName:   "j0437-4715",
		Telescope: "PKS",
		Receiver:  "Multi",
		Backend:   "CPSR2",
	}
	want := filepath.Join("/data", "PSR_J0437-4715", "pks", "multi", "cpsr2")
	assert.Equal(t, want, h.IntendedDirectory("/data"))
}
