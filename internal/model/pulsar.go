// Package model holds the entity variants persisted by the archivist:
// one concrete archivist.Entity implementation per table.
package model

import (
	"fmt"
	"strings"

	"github.com/SGullin/arpa/internal/archivist"
)

// PulsarMeta is the metadata of a pulsar.
type PulsarMeta struct {
	id int64

	// Alias is what this pulsar is commonly called.
	Alias string
	// JName is the J2000 name, if different from the alias.
	JName *string
	// BName is the B1950 name, if any and different from the alias.
	BName *string

	// J2000RA is the right ascension, fully specified; "HH:MM:SS.F*".
	J2000RA *string
	// J2000Dec is the declination, fully specified; "±DD:MM:SS.F*".
	J2000Dec *string

	// MasterParfileID is the id of a master ephemeris, if one is set.
	MasterParfileID *int64
}

var _ archivist.Entity = (*PulsarMeta)(nil)

func (*PulsarMeta) Table() archivist.Table { return archivist.TablePulsarMetas }
func (p *PulsarMeta) ID() int64            { return p.id }
func (p *PulsarMeta) SetID(id int64)       { p.id = id }

func (*PulsarMeta) InsertColumns() []string {
	return []string{"alias", "j_name", "b_name", "j2000_ra", "j2000_dec", "master_parfile_id"}
}

func (p *PulsarMeta) InsertValues() []any {
	return []any{p.Alias, p.JName, p.BName, p.J2000RA, p.J2000Dec, p.MasterParfileID}
}

func (*PulsarMeta) SelectColumns() []string {
	return []string{"id", "alias", "j_name", "b_name", "j2000_ra", "j2000_dec", "master_parfile_id"}
}

func (p *PulsarMeta) ScanDests() []any {
	return []any{&p.id, &p.Alias, &p.JName, &p.BName, &p.J2000RA, &p.J2000Dec, &p.MasterParfileID}
}

// UniqueColumns declares the alias, and the J name when one is set.
func (p *PulsarMeta) UniqueColumns() []string {
	if p.JName != nil {
		return []string{"alias", "j_name"}
	}
	return []string{"alias"}
}

func (p *PulsarMeta) UniqueValues() []any {
	if p.JName != nil {
		return []any{p.Alias, *p.JName}
	}
	return []any{p.Alias}
}

// Verify checks that every field except MasterParfileID is valid,
// drops J/B names equal to the alias, and resets the id sentinel.
func (p *PulsarMeta) Verify() error {
	if !validPulsarName(p.Alias) {
		return &MalformedInputError{
			Text: fmt.Sprintf("%q is not a valid pulsar alias", p.Alias),
		}
	}
	if p.JName != nil && !validPulsarName(*p.JName) {
		return &MalformedInputError{
			Text: fmt.Sprintf("%q is not a valid pulsar J name", *p.JName),
		}
	}
	if p.BName != nil && !validPulsarName(*p.BName) {
		return &MalformedInputError{
			Text: fmt.Sprintf("%q is not a valid pulsar B name", *p.BName),
		}
	}
	if p.J2000RA != nil {
		if err := ValidateRA(*p.J2000RA); err != nil {
			return err
		}
	}
	if p.J2000Dec != nil {
		if err := ValidateDec(*p.J2000Dec); err != nil {
			return err
		}
	}

	if p.JName != nil && *p.JName == p.Alias {
		p.JName = nil
	}
	if p.BName != nil && *p.BName == p.Alias {
		p.BName = nil
	}
	p.id = 0

	return nil
}

// ParsePulsarLine reads a pulsar from whitespace-separated fields:
// an alias, optionally followed by j_name, b_name, ra and dec, in that
// order. A "." skips a field.
func ParsePulsarLine(line string) (*PulsarMeta, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil, &MalformedInputError{Text: "pulsar line is empty"}
	}

	p := &PulsarMeta{Alias: parts[0]}

	refs := []**string{&p.JName, &p.BName, &p.J2000RA, &p.J2000Dec}
	for i, r := range refs {
		if i+1 >= len(parts) {
			break
		}
		if parts[i+1] == "." {
			continue
		}
		v := parts[i+1]
		*r = &v
	}

	if err := p.Verify(); err != nil {
		return nil, err
	}
	return p, nil
}

func validPulsarName(name string) bool {
	if name == "" || len(name) > 20 {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '+' || c == '-':
		default:
			return false
		}
	}
	return true
}
