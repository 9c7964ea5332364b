// Package migrations embeds the SQL schema migrations.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS

// Dir is the directory name within FS that holds the migration files.
const Dir = "."
