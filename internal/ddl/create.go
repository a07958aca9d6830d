// Package ddl is a small model of SQL table definitions and a renderer for
// CREATE TABLE statements. Backends describe their SQL flavour with a
// Dialect; the zero Dialect emits names verbatim with no guard clause.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect adapts rendering to one SQL flavour.
type Dialect struct {
	// Name prefixes error messages ("sqlite ddl: ...").
	Name string
	// Quote quotes one identifier segment. Nil leaves names as-is.
	Quote func(string) string
	// Wrap turns the quoted FQN and the column body into the final
	// statement. Nil renders a plain CREATE TABLE.
	Wrap func(fqn, body string) string
}

// IfNotExists wraps with CREATE TABLE IF NOT EXISTS (Postgres, SQLite).
func IfNotExists(fqn, body string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", fqn, body)
}

// QuoteFQN quotes each dotted segment of fqn with quote, dropping empty
// segments.
func QuoteFQN(fqn string, quote func(string) string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quote(p))
	}
	return strings.Join(out, ".")
}

// BuildCreateTableSQL renders t with the zero Dialect:
//
//	CREATE TABLE <FQN> (
//	  <name> <type> [NOT NULL] [DEFAULT <expr>],
//	  ...,
//	  [PRIMARY KEY (<pk-cols>)]
//	);
func BuildCreateTableSQL(t TableDef) (string, error) {
	return Dialect{}.CreateTable(t)
}

// CreateTable renders t in dialect d.
func (d Dialect) CreateTable(t TableDef) (string, error) {
	prefix := "ddl"
	if d.Name != "" {
		prefix = d.Name + " ddl"
	}
	quote := d.Quote
	if quote == nil {
		quote = func(s string) string { return s }
	}

	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", prefix)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s: at least one column is required", prefix)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, 1)
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s: column with empty name in table %s", prefix, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s: column %s missing SQLType", prefix, name)
		}

		var sb strings.Builder
		sb.WriteString(quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, quote(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	body := strings.Join(cols, ",\n  ")
	if d.Quote != nil {
		fqn = QuoteFQN(fqn, d.Quote)
	}
	if d.Wrap != nil {
		return d.Wrap(fqn, body), nil
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", fqn, body), nil
}
