package migrations

import "embed"

// FS embeds all SQL migration files for the PostgreSQL schema.
//
//go:embed *.sql
var FS embed.FS
