package record

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Record is one model instance: an entity plus the rows it was loaded from.
// Callers change Entity and call Save to persist it.
type Record[T any] struct {
	Entity T

	model    *Model[T]
	rows     []Row
	entities []T
}

// Rows returns the row buffer.
func (r *Record[T]) Rows() []Row {
	return r.rows
}

// Entities returns one decoded entity per buffered row.
func (r *Record[T]) Entities() []T {
	return r.entities
}

// Loaded reports whether the record holds rows read from (or written to) the table.
func (r *Record[T]) Loaded() bool {
	return len(r.rows) > 0
}

// Save inserts the entity when the buffer is empty and updates the buffered
// row otherwise. A record holding several rows cannot be saved; see UpdateAll.
func (r *Record[T]) Save(ctx context.Context) (Result, error) {
	switch len(r.rows) {
	case 0:
		return r.insert(ctx)
	case 1:
		return r.update(ctx)
	default:
		return Result{Op: OpUpdate}, fmt.Errorf("%w: %d rows loaded", ErrAmbiguousSave, len(r.rows))
	}
}

func (r *Record[T]) insert(ctx context.Context) (Result, error) {
	m := r.model
	res := Result{Op: OpInsert}

	cols, err := m.writeColumns(ctx)
	if err != nil {
		return res, err
	}
	names, args := assigned(&r.Entity, cols)

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		m.table, strings.Join(names, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", "))

	start := time.Now()
	var id any
	if m.returning() {
		q = m.db.Rebind(q + " RETURNING " + m.mapping.id.name)
		if err := m.db.QueryRowxContext(ctx, q, args...).Scan(&id); err != nil {
			m.trace("insert", q, start, -1, err)
			return res, fmt.Errorf("insert %s: %w", m.table, err)
		}
		res.RowsAffected = 1
	} else {
		q = m.db.Rebind(q)
		sr, err := m.db.ExecContext(ctx, q, args...)
		if err != nil {
			m.trace("insert", q, start, -1, err)
			return res, fmt.Errorf("insert %s: %w", m.table, err)
		}
		res.RowsAffected, _ = sr.RowsAffected()
		if last, err := sr.LastInsertId(); err == nil && last > 0 {
			id = last
		}
	}
	m.trace("insert", q, start, res.RowsAffected, nil)

	if id != nil {
		if n, ok := toInt64(id); ok {
			res.LastInsertID = n
		}
		r.markInserted(id)
	}
	return res, nil
}

// markInserted stores the generated id on Entity and buffers the written row,
// so a later Save updates it.
func (r *Record[T]) markInserted(id any) {
	m := r.model
	if m.mapping.id == nil {
		return
	}
	fv := reflect.ValueOf(&r.Entity).Elem().FieldByIndex(m.mapping.id.index)
	if !setValue(fv, normalize(id)) {
		return
	}
	r.rows = []Row{r.snapshot()}
	r.entities = []T{r.Entity}
}

func (r *Record[T]) update(ctx context.Context) (Result, error) {
	m := r.model
	res := Result{Op: OpUpdate}

	id, ok := r.rows[0].ID()
	if !ok {
		return res, ErrNoRowID
	}
	cols, err := m.writeColumns(ctx)
	if err != nil {
		return res, err
	}
	names, args := assigned(&r.Entity, cols)

	q := m.db.Rebind(fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", m.table, setList(names)))
	args = append(args, id)

	start := time.Now()
	sr, err := m.db.ExecContext(ctx, q, args...)
	if err != nil {
		m.trace("update", q, start, -1, err)
		return res, fmt.Errorf("update %s: %w", m.table, err)
	}
	res.RowsAffected, _ = sr.RowsAffected()
	m.trace("update", q, start, res.RowsAffected, nil)

	r.apply(names, args[:len(names)])
	r.entities[0] = r.Entity
	return res, nil
}

// maxBindParams is PostgreSQL's per-statement limit on bind parameters.
const maxBindParams = 65535

// updateBatchSize caps the ids bound into one UPDATE ... WHERE id IN (...).
var updateBatchSize = 10000

// UpdateAll writes the named columns of Entity to every buffered row. With no
// columns named, every mapped column is written. Ids are sent in batches of
// updateBatchSize. There is no transaction: when a batch fails, the returned
// Result counts the rows earlier batches changed.
func (r *Record[T]) UpdateAll(ctx context.Context, columns ...string) (Result, error) {
	m := r.model
	res := Result{Op: OpUpdate}

	if len(r.rows) == 0 {
		return res, ErrNotLoaded
	}
	ids := make([]any, 0, len(r.rows))
	for _, row := range r.rows {
		id, ok := row.ID()
		if !ok {
			return res, ErrNoRowID
		}
		ids = append(ids, id)
	}

	wanted := make(map[string]bool, len(columns))
	for _, name := range columns {
		key := strings.ToLower(name)
		if _, ok := m.mapping.byName[key]; !ok || key == idColumn {
			return res, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, m.table, name)
		}
		wanted[key] = true
	}

	cols, err := m.writeColumns(ctx)
	if err != nil {
		return res, err
	}
	if len(wanted) > 0 {
		kept := make([]column, 0, len(wanted))
		for _, c := range cols {
			if wanted[strings.ToLower(c.name)] {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			return res, fmt.Errorf("%w: %s", ErrNoColumns, m.table)
		}
		cols = kept
	}
	names, values := assigned(&r.Entity, cols)
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE id IN (?)", m.table, setList(names))

	size := min(updateBatchSize, maxBindParams-len(values))
	for lo := 0; lo < len(ids); lo += size {
		batch := ids[lo:min(lo+size, len(ids))]

		q, args, err := sqlx.In(stmt, append(append([]any{}, values...), batch)...)
		if err != nil {
			return res, fmt.Errorf("update %s: %w", m.table, err)
		}
		q = m.db.Rebind(q)

		start := time.Now()
		sr, err := m.db.ExecContext(ctx, q, args...)
		if err != nil {
			m.trace("update_all", q, start, -1, err)
			return res, fmt.Errorf("update %s: %w", m.table, err)
		}
		n, _ := sr.RowsAffected()
		res.RowsAffected += n
		m.trace("update_all", q, start, n, nil)
	}

	r.apply(names, values)
	return res, nil
}

// apply copies written values into every buffered row and entity.
func (r *Record[T]) apply(names []string, values []any) {
	for _, row := range r.rows {
		for i, n := range names {
			row[n] = values[i]
		}
	}
	for i := range r.entities {
		ev := reflect.ValueOf(&r.entities[i]).Elem()
		for j, n := range names {
			setValue(ev.FieldByIndex(r.model.mapping.byName[strings.ToLower(n)]), values[j])
		}
	}
}

// snapshot renders Entity's mapped columns as a Row.
func (r *Record[T]) snapshot() Row {
	names, values := assigned(&r.Entity, r.model.mapping.columns)
	row := make(Row, len(names))
	for i, n := range names {
		row[n] = values[i]
	}
	return row
}

func setList(names []string) string {
	sets := make([]string, len(names))
	for i, n := range names {
		sets[i] = n + " = ?"
	}
	return strings.Join(sets, ", ")
}

// setValue assigns v to fv when the kinds are compatible, converting between
// numeric types. It reports whether the value was set.
func setValue(fv reflect.Value, v any) bool {
	if v == nil || !fv.CanSet() {
		return false
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(fv.Type()):
		fv.Set(rv)
	case isNumeric(rv.Kind()) && isNumeric(fv.Kind()):
		fv.Set(rv.Convert(fv.Type()))
	case rv.Kind() == reflect.String && fv.Kind() == reflect.String:
		fv.SetString(rv.String())
	default:
		return false
	}
	return true
}

var bytesType = reflect.TypeOf([]byte(nil))

// assign stores a driver value in fv. sql.Scanner fields decode it themselves,
// pointer fields stay nil on NULL, and strings are parsed into numeric and bool fields.
func assign(fv reflect.Value, v any) error {
	if sc, ok := fv.Addr().Interface().(sql.Scanner); ok {
		return sc.Scan(v)
	}
	if v == nil {
		return nil
	}
	if fv.Kind() == reflect.Pointer {
		p := reflect.New(fv.Type().Elem())
		if err := assign(p.Elem(), v); err != nil {
			return err
		}
		fv.Set(p)
		return nil
	}
	if setValue(fv, v) {
		return nil
	}
	if s, ok := v.(string); ok {
		if fv.Type() == bytesType {
			fv.SetBytes([]byte(s))
			return nil
		}
		if err := parseInto(fv, s); err == nil {
			return nil
		}
	}
	return fmt.Errorf("cannot assign %T to %s", v, fv.Type())
}

func parseInto(fv reflect.Value, s string) error {
	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	default:
		return fmt.Errorf("unsupported kind %s", fv.Kind())
	}
	return nil
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toInt64(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	}
	return 0, false
}
