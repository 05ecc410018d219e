// Package migrations embeds the SQL schema applied by goose at startup and in tests.
package migrations

import "embed"

// FS holds all *.sql migration files.
//
//go:embed *.sql
var FS embed.FS
