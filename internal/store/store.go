// Package store persists imported flights, aircraft, mapping templates and
// import history. SQLiteStore backs the CLI and local installs; PgStore
// backs the web server.
package store

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/JonMunkholm/logbook/internal/core"
)

const flightsTable = "flights"

// placeholder renders the n-th (1-based) bind parameter.
type placeholder func(n int) string

func questionMark(int) string { return "?" }
func dollarSign(n int) string { return fmt.Sprintf("$%d", n) }

// insertFlightSQL builds the INSERT for columns.
func insertFlightSQL(columns []core.Field, ph placeholder) string {
	names := make([]string, len(columns))
	params := make([]string, len(columns))
	for i, c := range columns {
		names[i] = string(c)
		params[i] = ph(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		flightsTable, strings.Join(names, ", "), strings.Join(params, ", "))
}

// unknownColumns returns the requested columns the table does not have.
func unknownColumns(known map[string]bool, columns []core.Field) []core.Field {
	var out []core.Field
	for _, c := range columns {
		if !known[string(c)] {
			out = append(out, c)
		}
	}
	return out
}

var (
	sqliteNoColumn = regexp.MustCompile(`has no column named (\w+)`)
	pgNoColumn     = regexp.MustCompile(`column "(\w+)" of relation`)
)

// mismatchFromMessage recognises a missing-column error reported by the
// driver after the schema check passed (the table changed underneath us).
func mismatchFromMessage(re *regexp.Regexp, err error) *core.SchemaMismatchError {
	m := re.FindStringSubmatch(err.Error())
	if m == nil {
		return nil
	}
	return &core.SchemaMismatchError{Columns: []core.Field{core.Field(m[1])}, Err: err}
}

// encodeJSON marshals v for a TEXT or JSONB column.
func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON(s string, v any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}

func dateString(t time.Time) string {
	return t.Format(time.DateOnly)
}
