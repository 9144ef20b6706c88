// Package migrations holds the development schema for the tables the
// calendar reads.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
