// Package migrations holds the numbered SQL schema files.
package migrations

import "embed"

// FS exposes the schema files so binaries and tests do not depend on the
// working directory.
//
//go:embed *.sql
var FS embed.FS
