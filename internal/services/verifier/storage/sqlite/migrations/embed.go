// Package migrations contains embedded SQL migrations for the catalog store.
package migrations

import "embed"

//go:embed catalog/*.sql
var CatalogFS embed.FS
