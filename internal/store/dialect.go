package store

import (
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between the supported databases.
// Queries are written with `?` placeholders and rebound per dialect.
type Dialect struct {
	Name string

	numbered       bool
	orderColumn    string
	likeOperator   string
	migrationsDDL  string
	migrationsRoot string
}

var (
	Postgres = Dialect{
		Name:           "postgres",
		numbered:       true,
		orderColumn:    "seq",
		likeOperator:   "ILIKE",
		migrationsRoot: "migrations/postgres",
		migrationsDDL: `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version TEXT PRIMARY KEY,
				applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`,
	}

	SQLite = Dialect{
		Name:           "sqlite",
		orderColumn:    "rowid",
		likeOperator:   "LIKE",
		migrationsRoot: "migrations/sqlite",
		migrationsDDL: `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version TEXT PRIMARY KEY,
				applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
		`,
	}
)

func (d Dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
