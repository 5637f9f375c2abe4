// Package all registers every storage backend with the store registry.
package all

import (
	_ "github.com/vvka-141/jsonload/internal/store/mysql"     // mysql, mariadb
	_ "github.com/vvka-141/jsonload/internal/store/postgres"  // postgres
	_ "github.com/vvka-141/jsonload/internal/store/sqlite"    // sqlite
	_ "github.com/vvka-141/jsonload/internal/store/sqlserver" // sqlserver, mssql
)
