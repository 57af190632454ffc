package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParsePulsarLine(t *testing.T) {
	p, err := ParsePulsarLine("J0437-4715 J0437-4715 B0434-47 04:37:15.9 -47:15:09.1")
	require.NoError(t, err)

	assert.Equal(t, "J0437-4715", p.Alias)
	// The J name duplicates the alias, so it is dropped.
	assert.Nil(t, p.JName)
	require.NotNil(t, p.BName)
	assert.Equal(t, "B0434-47", *p.BName)
	require.NotNil(t, p.J2000RA)
	assert.Equal(t, "04:37:15.9", *p.J2000RA)
	require.NotNil(t, p.J2000Dec)
	assert.Equal(t, "-47:15:09.1", *p.J2000Dec)
}

func TestParsePulsarLine_Placeholders(t *testing.T) {
	p, err := ParsePulsarLine("vela . B0833-45")
	require.NoError(t, err)

	assert.Equal(t, "vela", p.Alias)
	assert.Nil(t, p.JName)
	require.NotNil(t, p.BName)
	assert.Equal(t, "B0833-45", *p.BName)
	assert.Nil(t, p.J2000RA)
	assert.Nil(t, p.J2000Dec)
}

func TestParsePulsarLine_AliasOnly(t *testing.T) {
	p, err := ParsePulsarLine("J1909-3744")
	require.NoError(t, err)
	assert.Equal(t, "J1909-3744", p.Alias)
	assert.Nil(t, p.JName)
}

func TestParsePulsarLine_Empty(t *testing.T) {
	_, err := ParsePulsarLine("   ")
	var malformed *MalformedInputError
	assert.ErrorAs(t, err, &malformed)
}

func TestVerify_NameRules(t *testing.T) {
	cases := []struct {
		name  string
		alias string
		ok    bool
	}{
		{"plain", "J0437-4715", true},
		{"with plus", "J0218+4232", true},
		{"empty", "", false},
		{"too long", "J012345678901234567890", false},
		{"whitespace", "J0437 4715", false},
		{"punctuation", "J0437_4715", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &PulsarMeta{Alias: tc.alias}
			err := p.Verify()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestVerify_Coordinates(t *testing.T) {
	p := &PulsarMeta{
		Alias:    "J0437-4715",
		J2000RA:  strPtr("25:00:00"),
		J2000Dec: strPtr("-47:15:09"),
	}
	assert.Error(t, p.Verify(), "hours above 23 must fail")

	p.J2000RA = strPtr("04:37:15.9")
	p.J2000Dec = strPtr("-95:00:00")
	assert.Error(t, p.Verify(), "degrees above 90 must fail")

	p.J2000Dec = strPtr("-47:15:09.1")
	assert.NoError(t, p.Verify())
}

func TestVerify_ResetsID(t *testing.T) {
	p := &PulsarMeta{Alias: "vela"}
	p.SetID(42)
	require.NoError(t, p.Verify())
	assert.Equal(t, int64(0), p.ID())
}

func TestValidateRA(t *testing.T) {
	assert.NoError(t, ValidateRA("00:00:00"))
	assert.NoError(t, ValidateRA("23:59:59.999"))
	assert.Error(t, ValidateRA("24:00:00"))
	assert.Error(t, ValidateRA("12:60:00"))
	assert.Error(t, ValidateRA("12:00:60"))
	assert.Error(t, ValidateRA("12:00"))
	assert.Error(t, ValidateRA("twelve:00:00"))
}

func TestValidateDec(t *testing.T) {
	assert.NoError(t, ValidateDec("+45:30:00"))
	assert.NoError(t, ValidateDec("-90:00:00"))
	assert.NoError(t, ValidateDec("47:15:09.1"))
	assert.Error(t, ValidateDec("-91:00:00"))
	assert.Error(t, ValidateDec("+45:61:00"))
	assert.Error(t, ValidateDec("+45:00"))
}

func TestUniqueColumns_DependOnJName(t *testing.T) {
	p := &PulsarMeta{Alias: "vela"}
	assert.Equal(t, []string{"alias"}, p.UniqueColumns())
	assert.Equal(t, []any{"vela"}, p.UniqueValues())

	p.JName = strPtr("J0835-4510")
	assert.Equal(t, []string{"alias", "j_name"}, p.UniqueColumns())
	assert.Equal(t, []any{"vela", "J0835-4510"}, p.UniqueValues())
}
