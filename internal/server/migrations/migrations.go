// Package migrations embeds the goose SQL migrations for the auth schema.
// The DDL sticks to the subset shared by PostgreSQL and SQLite.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
