package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SGullin/arpa/internal/config"
	"github.com/SGullin/arpa/internal/logging"
	"github.com/SGullin/arpa/internal/testutil"
	"github.com/SGullin/arpa/internal/tools"
)

func newRunner(t *testing.T) (*Runner, *testutil.ScriptedRunner) {
	t.Helper()
	scripted := testutil.NewScriptedRunner()
	cfg := config.NewConfig(t.TempDir())
	require.NoError(t, os.MkdirAll(cfg.Paths.TempDir, 0o755))
	return &Runner{
		Config:   cfg,
		PSRChive: &tools.PSRChive{Runner: scripted},
		Logger:   logging.NewNopLogger(),
	}, scripted
}

// vapHeader builds a full header response with the given dimensions.
func vapHeader(channels, subints int) string {
	return fmt.Sprintf(
		"working.ar 1024 %d 1 %d "+
			"Pulsar pks vela -45:10:34.8 08:35:20.6 "+
			"1382.0 -256.0 67.99 0.0 "+
			"FluxDensity Intensity 256.9 "+
			"multi lin cpsr2 58849.5",
		channels, subints,
	)
}

func TestRun_UnknownDiagnostic(t *testing.T) {
	r, _ := newRunner(t)
	err := r.Run(context.Background(), "vibes", 1, "working.ar", t.TempDir())
	var unknown *UnknownDiagnosticError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "vibes", unknown.Name)
}

func TestSNR(t *testing.T) {
	r, scripted := newRunner(t)
	scripted.Respond("psrstat", " 25.3\n")

	out, err := r.snr("working.ar")
	require.NoError(t, err)
	assert.InDelta(t, 25.3, out.Value, 1e-9)
	assert.Empty(t, out.PlotPath)

	calls := scripted.CallsTo("psrstat")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].ArgString(), "-j DTFp")
	assert.Contains(t, calls[0].ArgString(), "-c snr")
}

func TestSNR_ToolFailure(t *testing.T) {
	r, scripted := newRunner(t)
	scripted.Fail("psrstat", errors.New("corrupt archive"))

	_, err := r.snr("working.ar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt archive")
}

func TestSNR_UnparsableOutput(t *testing.T) {
	r, scripted := newRunner(t)
	scripted.Respond("psrstat", "plenty")

	_, err := r.snr("working.ar")
	require.Error(t, err)
}

func TestComposite_PanelSelection(t *testing.T) {
	cases := []struct {
		name     string
		channels int
		subints  int
		want     []string
		exclude  []string
	}{
		{"all panels", 4, 8, []string{"-p flux", "-p freq", "-p time"}, nil},
		{"no frequency panel", 1, 8, []string{"-p flux", "-p time"}, []string{"-p freq"}},
		{"no time panel", 4, 1, []string{"-p flux", "-p freq"}, []string{"-p time"}},
		{"profile only", 1, 1, []string{"-p flux"}, []string{"-p freq", "-p time"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, scripted := newRunner(t)
			scripted.Respond("vap", vapHeader(tc.channels, tc.subints))

			plotFile := filepath.Join(r.Config.Paths.TempDir, "tmp.png")
			require.NoError(t, os.WriteFile(plotFile, []byte("png"), 0o644))

			out, err := r.composite("working.ar")
			require.NoError(t, err)
			assert.Equal(t, plotFile, out.PlotPath)

			calls := scripted.CallsTo("psrplot")
			require.Len(t, calls, 1)
			args := calls[0].ArgString()
			for _, panel := range tc.want {
				assert.Contains(t, args, panel)
			}
			for _, panel := range tc.exclude {
				assert.NotContains(t, args, panel)
			}
			assert.Contains(t, args, "-D "+plotFile+"/PNG")
		})
	}
}

func TestComposite_NothingToPlot(t *testing.T) {
	r, scripted := newRunner(t)
	scripted.Respond("vap", vapHeader(0, 8))

	_, err := r.composite("working.ar")
	var bad *BadPlotFileError
	require.ErrorAs(t, err, &bad)
	assert.Empty(t, scripted.CallsTo("psrplot"))
}

func TestComposite_MissingPlotFile(t *testing.T) {
	r, scripted := newRunner(t)
	scripted.Respond("vap", vapHeader(4, 8))

	_, err := r.composite("working.ar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "produced no file")
}
