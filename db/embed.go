// Package db holds the SQL migrations compiled into the binary.
package db

import "embed"

// Migrations contains one goose directory per supported dialect.
//
//go:embed migrations
var Migrations embed.FS
