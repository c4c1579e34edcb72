// Package migrations embeds the SQL migration files so server bootstrap
// can apply them with the goose programmatic API instead of relying on a
// filesystem path at runtime.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
