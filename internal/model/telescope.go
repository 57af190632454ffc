package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/SGullin/arpa/internal/archivist"
)

// TelescopeID identifies a telescope by name, abbreviation and
// observatory code.
type TelescopeID struct {
	id int64

	Name         string
	Abbreviation string
	Code         string
}

var _ archivist.Entity = (*TelescopeID)(nil)

func (*TelescopeID) Table() archivist.Table { return archivist.TableTelescopes }
func (t *TelescopeID) ID() int64            { return t.id }
func (t *TelescopeID) SetID(id int64)       { t.id = id }

func (*TelescopeID) InsertColumns() []string {
	return []string{"name", "abbreviation", "code"}
}
func (t *TelescopeID) InsertValues() []any {
	return []any{t.Name, t.Abbreviation, t.Code}
}
func (*TelescopeID) SelectColumns() []string {
	return []string{"id", "name", "abbreviation", "code"}
}
func (t *TelescopeID) ScanDests() []any {
	return []any{&t.id, &t.Name, &t.Abbreviation, &t.Code}
}
func (*TelescopeID) UniqueColumns() []string { return []string{"name", "code"} }
func (t *TelescopeID) UniqueValues() []any   { return []any{t.Name, t.Code} }

// ObsSystem is a registered combination of telescope, receiver
// (frontend) and backend instrument.
type ObsSystem struct {
	id int64

	Name        string
	TelescopeID int64
	Frontend    string
	Backend     string
	Clock       string
	Code        string
}

var _ archivist.Entity = (*ObsSystem)(nil)

func (*ObsSystem) Table() archivist.Table { return archivist.TableObsSystems }
func (o *ObsSystem) ID() int64            { return o.id }
func (o *ObsSystem) SetID(id int64)       { o.id = id }

func (*ObsSystem) InsertColumns() []string {
	return []string{"name", "telescope_id", "frontend", "backend", "clock", "code"}
}
func (o *ObsSystem) InsertValues() []any {
	return []any{o.Name, o.TelescopeID, o.Frontend, o.Backend, o.Clock, o.Code}
}
func (*ObsSystem) SelectColumns() []string {
	return []string{"id", "name", "telescope_id", "frontend", "backend", "clock", "code"}
}
func (o *ObsSystem) ScanDests() []any {
	return []any{&o.id, &o.Name, &o.TelescopeID, &o.Frontend, &o.Backend, &o.Clock, &o.Code}
}
func (*ObsSystem) UniqueColumns() []string { return []string{"name"} }
func (o *ObsSystem) UniqueValues() []any   { return []any{o.Name} }

// FindObsSystem resolves an observing system from a telescope name (or
// abbreviation), receiver and backend, all matched lowercased. Returns
// nil if no system is registered for the combination; a missing
// telescope is an error.
func FindObsSystem(ctx context.Context, store *archivist.Store, telescope, receiver, backend string) (*ObsSystem, error) {
	name := strings.ToLower(telescope)

	tel, err := archivist.Find[TelescopeID](
		ctx, store,
		"name = ? OR abbreviation = ?",
		name, name,
	)
	if err != nil {
		return nil, err
	}
	if tel == nil {
		return nil, fmt.Errorf("could not find telescope with name or abbreviation %q", telescope)
	}

	return archivist.Find[ObsSystem](
		ctx, store,
		"telescope_id = ? AND frontend = ? AND backend = ?",
		tel.ID(), strings.ToLower(receiver), strings.ToLower(backend),
	)
}
