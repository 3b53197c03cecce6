// Package db содержит SQL-миграции схемы, встраиваемые в бинарник.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
