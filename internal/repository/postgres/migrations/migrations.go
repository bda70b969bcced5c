// Package migrations embeds the goose SQL migrations.
// Table names are written as ${TABLE_PREFIX}name and substituted by goose ENVSUB.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
