// Package database provides SQLite database connectivity for the Lost & Found registry.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Schema migrations from an embedded filesystem
//   - Connection lifecycle and health checks
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration files live in the migrations/ directory at the repository root
// and are embedded into the binary. Each migration has both a .up.sql and a
// .down.sql file, named YYYYMMDD_HHMMSS_description.{up,down}.sql.
package database
