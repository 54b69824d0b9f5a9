// Package migrations embeds the SQL schema migrations so the binary can
// bootstrap its own database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
