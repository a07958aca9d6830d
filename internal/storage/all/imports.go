// Package all links every built-in storage backend. Import it for side
// effects:
//
//	import _ "github.com/theodi/csv2rdf/internal/storage/all"
//
// after which storage.New accepts "sqlite", "postgres", "mssql", "neo4j"
// and "nats".
package all

import (
	_ "github.com/theodi/csv2rdf/internal/storage/mssql"
	_ "github.com/theodi/csv2rdf/internal/storage/nats"
	_ "github.com/theodi/csv2rdf/internal/storage/neo4j"
	_ "github.com/theodi/csv2rdf/internal/storage/postgres"
	_ "github.com/theodi/csv2rdf/internal/storage/sqlite"
)
