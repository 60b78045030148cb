package migrations

import (
	"fmt"
	"io/fs"
	"strings"

	contacts "github.com/goliatone/go-connect-contacts"
	"github.com/goliatone/go-connect-contacts/core"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	// SourceLabel identifies this module's migrations to the persistence client.
	SourceLabel = "go-connect-contacts"

	migrationsDir = "data/sql/migrations"
)

// DialectForDriver maps a database/sql driver name to a migration dialect.
func DialectForDriver(driver string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(driver)) {
	case "sqlite3", "sqlite":
		return DialectSQLite, nil
	case "postgres", "pgx", "postgresql":
		return DialectPostgres, nil
	default:
		return "", core.ConfigError(
			fmt.Sprintf("migrations: unsupported driver %q", driver),
			map[string]any{"driver": driver},
		)
	}
}

// Files returns the embedded run history migrations for dialect. Postgres
// files live at the root of data/sql/migrations, SQLite variants under sqlite/.
func Files(dialect string) (fs.FS, error) {
	dir := migrationsDir
	switch dialect {
	case DialectPostgres:
	case DialectSQLite:
		dir += "/sqlite"
	default:
		return nil, core.ConfigError(
			fmt.Sprintf("migrations: unsupported dialect %q", dialect),
			map[string]any{"dialect": dialect},
		)
	}

	fsys, err := fs.Sub(contacts.GetMigrationsFS(), dir)
	if err != nil {
		return nil, core.StorageError(err, "migrations: resolve "+dir, nil)
	}
	matches, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, core.StorageError(err, "migrations: glob "+dir, nil)
	}
	if len(matches) == 0 {
		return nil, core.StorageError(nil, fmt.Sprintf("migrations: %s has no *.up.sql files", dir), nil)
	}
	return fsys, nil
}

// Register hands the migrations for dialect to register, typically a
// persistence client's RegisterSQLMigrations.
func Register(dialect string, register func(fs.FS)) error {
	if register == nil {
		return core.ConfigError("migrations: register function is required", nil)
	}
	fsys, err := Files(dialect)
	if err != nil {
		return err
	}
	register(fsys)
	return nil
}
