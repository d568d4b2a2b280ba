package migrations

import "embed"

// Files holds the SQL migration files compiled into the binary.
//
//go:embed *.sql
var Files embed.FS
