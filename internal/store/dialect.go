package store

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// Dialect holds the SQL differences between backends for the fixed
// data_json layout.
type Dialect struct {
	Name string

	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string

	// Quote renders an identifier. Column names are camelCase and must be
	// quoted on backends that fold case.
	Quote func(ident string) string

	IntType  string
	TextType string
	JSONType string

	// JSONCheck optionally renders a column constraint for JSON text.
	JSONCheck func(quotedColumn string) string

	// CreateTable wraps the column list. %[1]s is the quoted table name,
	// %[2]s the column definitions.
	CreateTable string

	// IsKeyConflict reports a primary key violation.
	IsKeyConflict func(err error) bool
}

// QuestionMark is the ? placeholder style.
func QuestionMark(int) string { return "?" }

// DollarN is the $n placeholder style.
func DollarN(n int) string { return fmt.Sprintf("$%d", n) }

// AtPN is the @pN placeholder style.
func AtPN(n int) string { return fmt.Sprintf("@p%d", n) }

// DoubleQuote quotes an identifier the ANSI way.
func DoubleQuote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Backtick quotes an identifier the MySQL way.
func Backtick(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// Bracket quotes an identifier the SQL Server way.
func Bracket(ident string) string {
	return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
}

func (d *Dialect) columnType(kind jsonload.ColumnKind) string {
	switch kind {
	case jsonload.ColumnInt:
		return d.IntType
	case jsonload.ColumnJSON:
		return d.JSONType
	default:
		return d.TextType
	}
}

// CreateTableSQL returns the idempotent DDL for data_json.
func (d *Dialect) CreateTableSQL() string {
	defs := make([]string, 0, len(jsonload.Columns))
	for i, col := range jsonload.Columns {
		name := d.Quote(col.Name)
		def := name + " " + d.columnType(col.Kind)
		switch {
		case i == 0:
			def += " NOT NULL PRIMARY KEY"
		case col.Kind == jsonload.ColumnJSON && d.JSONCheck != nil:
			def += " " + d.JSONCheck(name)
		}
		defs = append(defs, def)
	}

	tmpl := d.CreateTable
	if tmpl == "" {
		tmpl = "CREATE TABLE IF NOT EXISTS %[1]s (%[2]s)"
	}
	return fmt.Sprintf(tmpl, d.Quote(jsonload.TableName), strings.Join(defs, ", "))
}

// CountSQL returns the duplicate check query.
func (d *Dialect) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = %s",
		d.Quote(jsonload.TableName), d.Quote(jsonload.KeyColumn), d.Placeholder(1))
}

// InsertSQL returns the single-row insert covering every column.
func (d *Dialect) InsertSQL() string {
	names := make([]string, len(jsonload.Columns))
	params := make([]string, len(jsonload.Columns))
	for i, col := range jsonload.Columns {
		names[i] = d.Quote(col.Name)
		params[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Quote(jsonload.TableName), strings.Join(names, ", "), strings.Join(params, ", "))
}

// RowValues returns rec's column values as plain driver values
// (nil, int64 or string) in insert order.
func RowValues(rec *jsonload.AddressRecord) ([]any, error) {
	values, err := rec.Values()
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if valuer, ok := v.(driver.Valuer); ok {
			if values[i], err = valuer.Value(); err != nil {
				return nil, fmt.Errorf("column %s: %w", jsonload.Columns[i].Name, err)
			}
		}
	}
	return values, nil
}

// KeyConflict wraps a backend error so it matches jsonload.ErrKeyConflict.
func KeyConflict(err error) error {
	return fmt.Errorf("%w: %v", jsonload.ErrKeyConflict, err)
}
