// Package postgres embeds the SQL migrations of the CRM tables.
package postgres

import "embed"

// FS holds the *_up.sql and *_down.sql files, applied in file name order.
//
//go:embed *.sql
var FS embed.FS
