// Package migrations embeds the bun SQL migrations for the scheduling database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
