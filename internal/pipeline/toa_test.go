package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTempo2Line(t *testing.T) {
	toa, err := ParseTempo2Line(
		"obs_0001.ar 1382.391 58849.567891234567891 1.204 pks",
	)
	require.NoError(t, err)

	assert.Equal(t, "obs_0001.ar", toa.File)
	assert.InDelta(t, 1382.391, toa.Frequency, 1e-9)
	assert.Equal(t, int64(58849), toa.MJDInt)
	assert.InDelta(t, 0.567891234567891, toa.MJDFrac, 1e-16)
	assert.InDelta(t, 1.204, toa.Error, 1e-9)
	assert.Equal(t, "pks", toa.Site)
}

func TestParseTempo2Line_IgnoresTrailingFlags(t *testing.T) {
	toa, err := ParseTempo2Line(
		"obs.ar 1382.0 58849.5 1.2 pks -gof 1.02 -length 256.9",
	)
	require.NoError(t, err)
	assert.Equal(t, "pks", toa.Site)
}

func TestParseTempo2Line_TooFewFields(t *testing.T) {
	_, err := ParseTempo2Line("obs.ar 1382.0 58849.5 1.2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4 fields")
}

func TestParseTempo2Line_BadNumbers(t *testing.T) {
	for _, line := range []string{
		"obs.ar wide 58849.5 1.2 pks",
		"obs.ar 1382.0 soon 1.2 pks",
		"obs.ar 1382.0 58849.5 small pks",
	} {
		_, err := ParseTempo2Line(line)
		assert.Error(t, err, "line %q", line)
	}
}

func TestSplitMJD(t *testing.T) {
	cases := []struct {
		text string
		day  int64
		frac float64
	}{
		{"58849.567891234567891", 58849, 0.567891234567891},
		{"58849", 58849, 0},
		{"58849.", 58849, 0},
		{"58849.5", 58849, 0.5},
		{"0.25", 0, 0.25},
	}
	for _, tc := range cases {
		day, frac, err := splitMJD(tc.text)
		require.NoError(t, err, "splitting %q", tc.text)
		assert.Equal(t, tc.day, day, "day of %q", tc.text)
		assert.InDelta(t, tc.frac, frac, 1e-16, "fraction of %q", tc.text)
	}
}

// The fractional part must not lose precision to the integer digits:
// the two halves come from separate parses of the original text.
func TestSplitMJD_PrecisionSurvivesLargeDays(t *testing.T) {
	_, frac, err := splitMJD("58849.123456789012345")
	require.NoError(t, err)
	assert.InDelta(t, 0.123456789012345, frac, 1e-16)
}

func TestSplitMJD_BadInput(t *testing.T) {
	for _, text := range []string{"later", "58849.later", ""} {
		_, _, err := splitMJD(text)
		assert.Error(t, err, "splitting %q", text)
	}
}
