package model

import (
	"github.com/SGullin/arpa/internal/archivist"
	"github.com/SGullin/arpa/internal/checksum"
)

// ParMeta is the metadata of an ephemeris (timing-model) file. The
// (file path, checksum) pair is its content-addressing key.
type ParMeta struct {
	id int64

	// PulsarID links to the owning pulsar; the name lives there.
	PulsarID int64
	// Checksum is the 128-bit content checksum of the file.
	Checksum checksum.Sum
	// FilePath is the canonical path of the archived file.
	FilePath string
}

var _ archivist.Entity = (*ParMeta)(nil)

func (*ParMeta) Table() archivist.Table { return archivist.TableParMetas }
func (p *ParMeta) ID() int64            { return p.id }
func (p *ParMeta) SetID(id int64)       { p.id = id }

func (*ParMeta) InsertColumns() []string {
	return []string{"pulsar_id", "checksum", "file_path"}
}
func (p *ParMeta) InsertValues() []any {
	return []any{p.PulsarID, p.Checksum, p.FilePath}
}
func (*ParMeta) SelectColumns() []string {
	return []string{"id", "pulsar_id", "checksum", "file_path"}
}
func (p *ParMeta) ScanDests() []any {
	return []any{&p.id, &p.PulsarID, &p.Checksum, &p.FilePath}
}
func (*ParMeta) UniqueColumns() []string { return []string{"checksum", "file_path"} }
func (p *ParMeta) UniqueValues() []any   { return []any{p.Checksum, p.FilePath} }

// NewParMeta checksums the file at path and builds its metadata.
func NewParMeta(path string, pulsarID int64, blockSize int) (*ParMeta, error) {
	sum, err := checksum.File(path, blockSize)
	if err != nil {
		return nil, err
	}
	return &ParMeta{PulsarID: pulsarID, Checksum: sum, FilePath: path}, nil
}

// TemplateMeta is the metadata of a reference template file.
type TemplateMeta struct {
	id int64

	// PulsarID links to the owning pulsar.
	PulsarID int64
	// FilePath is the canonical path of the archived file.
	FilePath string
	// Checksum is the 128-bit content checksum of the file.
	Checksum checksum.Sum
}

var _ archivist.Entity = (*TemplateMeta)(nil)

func (*TemplateMeta) Table() archivist.Table { return archivist.TableTemplateMetas }
func (t *TemplateMeta) ID() int64            { return t.id }
func (t *TemplateMeta) SetID(id int64)       { t.id = id }

func (*TemplateMeta) InsertColumns() []string {
	return []string{"pulsar_id", "file_path", "checksum"}
}
func (t *TemplateMeta) InsertValues() []any {
	return []any{t.PulsarID, t.FilePath, t.Checksum}
}
func (*TemplateMeta) SelectColumns() []string {
	return []string{"id", "pulsar_id", "file_path", "checksum"}
}
func (t *TemplateMeta) ScanDests() []any {
	return []any{&t.id, &t.PulsarID, &t.FilePath, &t.Checksum}
}
func (*TemplateMeta) UniqueColumns() []string { return []string{"file_path", "checksum"} }
func (t *TemplateMeta) UniqueValues() []any   { return []any{t.FilePath, t.Checksum} }

// NewTemplateMeta checksums the file at path and builds its metadata.
func NewTemplateMeta(path string, pulsarID int64, blockSize int) (*TemplateMeta, error) {
	sum, err := checksum.File(path, blockSize)
	if err != nil {
		return nil, err
	}
	return &TemplateMeta{PulsarID: pulsarID, FilePath: path, Checksum: sum}, nil
}

// RawMeta is the metadata of a stored raw measurement file.
type RawMeta struct {
	id int64

	// FilePath is the canonical path of the archived file.
	FilePath string
	// Checksum is the 128-bit content checksum of the file.
	Checksum checksum.Sum

	// PulsarID links to the pulsar the observation targeted.
	PulsarID int64
	// ObserverID links to the observing system that produced the file.
	ObserverID int64
}

var _ archivist.Entity = (*RawMeta)(nil)

func (*RawMeta) Table() archivist.Table { return archivist.TableRawMetas }
func (r *RawMeta) ID() int64            { return r.id }
func (r *RawMeta) SetID(id int64)       { r.id = id }

func (*RawMeta) InsertColumns() []string {
	return []string{"file_path", "checksum", "pulsar_id", "observer_id"}
}
func (r *RawMeta) InsertValues() []any {
	return []any{r.FilePath, r.Checksum, r.PulsarID, r.ObserverID}
}
func (*RawMeta) SelectColumns() []string {
	return []string{"id", "file_path", "checksum", "pulsar_id", "observer_id"}
}
func (r *RawMeta) ScanDests() []any {
	return []any{&r.id, &r.FilePath, &r.Checksum, &r.PulsarID, &r.ObserverID}
}
func (*RawMeta) UniqueColumns() []string { return []string{"file_path", "checksum"} }
func (r *RawMeta) UniqueValues() []any   { return []any{r.FilePath, r.Checksum} }
