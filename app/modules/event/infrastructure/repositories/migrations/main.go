package migrations

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations holds the event schema migrations, discovered from this package's files.
var Migrations = migrate.NewMigrations()

func init() {
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
}
