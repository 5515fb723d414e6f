package ledgerbot

import "embed"

// MigrationsFS holds the SQL migrations for the postgres snapshot backend.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
