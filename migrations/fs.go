// Package migrations embeds the SQL schema migrations for the storefront
// database.
package migrations

import "embed"

// FS holds the embedded migration files, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
