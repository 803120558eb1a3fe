// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each backend, which register their
// factories with the storage package. After the import the following kinds
// are available:
//
//   - "mysql"    (dbingest/internal/storage/mysql)
//   - "postgres" (dbingest/internal/storage/postgres)
//   - "mssql"    (dbingest/internal/storage/mssql)
//   - "sqlite"   (dbingest/internal/storage/sqlite)
//
// Typical usage:
//
//	import _ "dbingest/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Driver, DSN: dsn})
//
// A binary that needs only a subset of backends can import those packages
// directly instead.
package all

import (
	_ "dbingest/internal/storage/mssql"
	_ "dbingest/internal/storage/mysql"
	_ "dbingest/internal/storage/postgres"
	_ "dbingest/internal/storage/sqlite"
)
