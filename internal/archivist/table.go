package archivist

// Table names a relational table managed by the Store. All persisted
// entities are reachable only through these values.
type Table string

const (
	TableUsers Table = "users"

	TablePulsarMetas   Table = "pulsar_meta"
	TableParMetas      Table = "par_meta"
	TableRawMetas      Table = "raw_meta"
	TableTemplateMetas Table = "template_meta"

	TableTOAs Table = "toas"

	TableTelescopes Table = "telescopes"
	TableObsSystems Table = "obs_systems"

	TableProcessMetas     Table = "process_meta"
	TableDiagnosticFloats Table = "diag_floats"
	TableDiagnosticPlots  Table = "diag_plots"
)

func (t Table) String() string { return string(t) }

// Entity is the capability every persisted type implements: its table,
// its identity, its column lists, and its uniqueness predicate. One
// concrete implementation exists per entity variant; no reflection.
//
// The id is assigned only by the Store on insert. Before that the id is
// zero, the "not yet persisted" sentinel, and it never changes once set.
type Entity interface {
	// Table is the table this entity lives in.
	Table() Table

	// ID returns the assigned identity, or 0 if not yet persisted.
	ID() int64
	// SetID records the identity assigned on insert.
	SetID(id int64)

	// InsertColumns lists the columns written on insert (no id).
	InsertColumns() []string
	// InsertValues lists the values written on insert, matching
	// InsertColumns element for element.
	InsertValues() []any

	// SelectColumns lists the columns read on select, id first.
	SelectColumns() []string
	// ScanDests returns pointers into the entity's fields, matching
	// SelectColumns element for element.
	ScanDests() []any

	// UniqueColumns lists the columns whose values may not collide
	// with any persisted row. An empty list means no constraint.
	// A collision on any single column suffices; the Store checks
	// them with OR semantics.
	UniqueColumns() []string
	// UniqueValues lists the values matching UniqueColumns.
	UniqueValues() []any
}
