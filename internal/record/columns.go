package record

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

const idColumn = "id"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type column struct {
	name  string
	index []int
}

// mapping is the field-to-column layout of an entity type, resolved once per Model.
type mapping struct {
	columns []column
	byName  map[string][]int
	id      *column
}

// mapEntity reads the `db` tags of t. Untagged, unexported and `db:"-"` fields are not mapped.
func mapEntity(t reflect.Type) (mapping, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return mapping{}, fmt.Errorf("%w: %v", ErrNotStruct, t)
	}

	m := mapping{byName: make(map[string][]int)}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, ok := f.Tag.Lookup("db")
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		if !identRe.MatchString(name) {
			return mapping{}, fmt.Errorf("%w: column %q on field %s", ErrInvalidIdentifier, name, f.Name)
		}
		key := strings.ToLower(name)
		if _, dup := m.byName[key]; dup {
			return mapping{}, fmt.Errorf("duplicate column %q on field %s", name, f.Name)
		}
		c := column{name: name, index: f.Index}
		m.columns = append(m.columns, c)
		m.byName[key] = f.Index
	}
	for i := range m.columns {
		if strings.ToLower(m.columns[i].name) == idColumn {
			m.id = &m.columns[i]
		}
	}
	return m, nil
}

// writable returns every mapped column except the primary key.
func (m mapping) writable() []column {
	out := make([]column, 0, len(m.columns))
	for _, c := range m.columns {
		if strings.ToLower(c.name) == idColumn {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Columns describes the live table and returns its column names in ordinal order.
// The result is never cached.
func (m *Model[T]) Columns(ctx context.Context) ([]string, error) {
	q := m.db.Rebind(`SELECT column_name FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position`)

	var cols []string
	if err := m.db.SelectContext(ctx, &cols, q, m.table); err != nil {
		m.log.Error().Err(err).Str("op", "describe").Msg("record query failed")
		return nil, fmt.Errorf("describe %s: %w", m.table, err)
	}
	return cols, nil
}

// writeColumns returns the columns a write should persist. With VerifyColumns set, mapped
// fields absent from the live table are dropped.
func (m *Model[T]) writeColumns(ctx context.Context) ([]column, error) {
	cols := m.mapping.writable()
	if m.verifyColumns {
		live, err := m.Columns(ctx)
		if err != nil {
			return nil, err
		}
		present := make(map[string]bool, len(live))
		for _, name := range live {
			present[strings.ToLower(name)] = true
		}
		kept := cols[:0]
		for _, c := range cols {
			if present[strings.ToLower(c.name)] {
				kept = append(kept, c)
			} else {
				m.log.Debug().Str("column", c.name).Msg("column not in table, skipped")
			}
		}
		cols = kept
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoColumns, m.table)
	}
	return cols, nil
}

// assigned returns the column names and current values of entity for cols.
func assigned[T any](entity *T, cols []column) ([]string, []any) {
	v := reflect.ValueOf(entity).Elem()
	names := make([]string, len(cols))
	values := make([]any, len(cols))
	for i, c := range cols {
		names[i] = c.name
		values[i] = v.FieldByIndex(c.index).Interface()
	}
	return names, values
}
