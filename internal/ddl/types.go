package ddl

// ColumnDef is one column. Name is unquoted; Default is raw SQL.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef is a table in dotted FQN form ("schema.table") with ordered
// columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Types maps the statement table's two column shapes onto a dialect.
type Types struct {
	// Key holds the fixed-width statement hash.
	Key string
	// Text holds IRIs and lexical forms, which are unbounded.
	Text string
	// Short holds kinds and language tags.
	Short string
}

// StatementTable is the definition of the statement table at fqn. The
// column order matches storage.StatementColumns.
func StatementTable(fqn string, t Types) TableDef {
	short := t.Short
	if short == "" {
		short = t.Text
	}
	return TableDef{
		FQN: fqn,
		Columns: []ColumnDef{
			{Name: "hash", SQLType: t.Key, PrimaryKey: true},
			{Name: "session", SQLType: short},
			{Name: "subject", SQLType: t.Text},
			{Name: "predicate", SQLType: t.Text},
			{Name: "object", SQLType: t.Text},
			{Name: "object_kind", SQLType: short},
			{Name: "datatype", SQLType: t.Text, Nullable: true},
			{Name: "lang", SQLType: short, Nullable: true},
		},
	}
}
