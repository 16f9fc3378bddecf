// Package migrations embeds the quill.db schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
