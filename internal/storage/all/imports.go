// Package all wires every built-in lookup store backend into the storage
// factory. Import it for side effects:
//
//	import _ "rsidbuild/internal/storage/all"
//
// After that, storage.New accepts the kinds "sqlite", "postgres", "mssql"
// and "mysql".
package all

import (
	_ "rsidbuild/internal/storage/mssql"
	_ "rsidbuild/internal/storage/mysql"
	_ "rsidbuild/internal/storage/postgres"
	_ "rsidbuild/internal/storage/sqlite"
)
