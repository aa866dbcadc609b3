// Package migrations embeds the SQL schema files.
// Files are applied in lexical order; only *.up.sql files run at startup.
package migrations

import "embed"

// FS holds every migration file shipped with the binary.
//
//go:embed *.sql
var FS embed.FS
