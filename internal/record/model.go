// Package record implements a small active-record layer: a Model bound to one
// entity type reads rows from the entity's table into Records, and a Record
// writes its entity back with an insert or an update depending on whether it
// was loaded from the table.
package record

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// Options configures a Model.
type Options struct {
	// Namer derives the table name from the entity type name. Defaults to NaiveNamer.
	Namer Namer
	// Logger receives one debug event per statement. Defaults to a disabled logger.
	Logger *zerolog.Logger
	// VerifyColumns describes the live table before every write and drops
	// mapped fields the table does not have.
	VerifyColumns bool
}

// Model gives CRUD access to the table backing entity type T.
// T must be a struct whose persisted fields carry `db:"<column>"` tags.
// A Model is safe for concurrent use; the Records it returns are not.
type Model[T any] struct {
	db            *sqlx.DB
	table         string
	mapping       mapping
	log           zerolog.Logger
	verifyColumns bool
}

// NewModel resolves the table name and column mapping of T.
func NewModel[T any](db *sqlx.DB, opts Options) (*Model[T], error) {
	var zero T
	t := reflect.TypeOf(zero)

	mp, err := mapEntity(t)
	if err != nil {
		return nil, err
	}
	if len(mp.columns) == 0 {
		return nil, fmt.Errorf("%w: %s has no db-tagged fields", ErrNoColumns, t.Name())
	}

	namer := opts.Namer
	if namer == nil {
		namer = NaiveNamer{}
	}
	table := namer.TableName(t.Name())
	if tb, ok := any(zero).(Tabler); ok {
		table = tb.TableName()
	} else if tb, ok := any(&zero).(Tabler); ok {
		table = tb.TableName()
	}
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("%w: table %q", ErrInvalidIdentifier, table)
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return &Model[T]{
		db:            db,
		table:         table,
		mapping:       mp,
		log:           log.With().Str("component", "record").Str("table", table).Logger(),
		verifyColumns: opts.VerifyColumns,
	}, nil
}

// Table returns the table name the model reads and writes.
func (m *Model[T]) Table() string {
	return m.table
}

// New returns a record for entity with an empty row buffer; saving it inserts.
func (m *Model[T]) New(entity T) *Record[T] {
	return &Record[T]{Entity: entity, model: m}
}

// GetAll returns every row of the table, in the order the database returns them.
func (m *Model[T]) GetAll(ctx context.Context) ([]Row, error) {
	rec, err := m.load(ctx, "select_all", false, "SELECT * FROM "+m.table)
	if err != nil {
		return nil, err
	}
	return rec.rows, nil
}

// FindAll loads every row of the table into one record.
func (m *Model[T]) FindAll(ctx context.Context) (*Record[T], error) {
	return m.load(ctx, "select_all", true, "SELECT * FROM "+m.table)
}

// Find loads the row with the given id. When no row matches, the returned
// record has an empty buffer and saving it inserts.
func (m *Model[T]) Find(ctx context.Context, id int64) (*Record[T], error) {
	return m.load(ctx, "select_one", true, m.db.Rebind("SELECT * FROM "+m.table+" WHERE id = ?"), id)
}

// load reads the result of q into a record. Entities are decoded only when
// withEntities is set, so raw rows never depend on the entity's field types.
func (m *Model[T]) load(ctx context.Context, op string, withEntities bool, q string, args ...any) (*Record[T], error) {
	start := time.Now()
	rows, err := m.db.QueryxContext(ctx, q, args...)
	if err != nil {
		m.trace(op, q, start, -1, err)
		return nil, fmt.Errorf("%s %s: %w", op, m.table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%s %s: columns: %w", op, m.table, err)
	}

	rec := &Record[T]{model: m, rows: make([]Row, 0)}
	for rows.Next() {
		row, err := scanRow(rows, cols)
		if err != nil {
			m.trace(op, q, start, -1, err)
			return nil, fmt.Errorf("%s %s: scan: %w", op, m.table, err)
		}
		rec.rows = append(rec.rows, row)
		if !withEntities {
			continue
		}
		ent, err := m.decode(row)
		if err != nil {
			m.trace(op, q, start, -1, err)
			return nil, fmt.Errorf("%s %s: %w", op, m.table, err)
		}
		rec.entities = append(rec.entities, ent)
	}
	if err := rows.Err(); err != nil {
		m.trace(op, q, start, -1, err)
		return nil, fmt.Errorf("%s %s: %w", op, m.table, err)
	}
	if len(rec.entities) > 0 {
		rec.Entity = rec.entities[0]
	}

	m.trace(op, q, start, int64(len(rec.rows)), nil)
	return rec, nil
}

// scanRow reads the current row as driver values. NULL cells stay nil.
func scanRow(rows *sqlx.Rows, cols []string) (Row, error) {
	vals := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range vals {
		dest[i] = &vals[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	row := make(Row, len(cols))
	for i, c := range cols {
		row[c] = normalize(vals[i])
	}
	return row, nil
}

// decode fills a fresh entity from row. Columns the entity does not map are
// ignored, and NULL leaves a field at its zero value.
func (m *Model[T]) decode(row Row) (T, error) {
	var ent T
	v := reflect.ValueOf(&ent).Elem()
	for c, val := range row {
		idx, ok := m.mapping.byName[strings.ToLower(c)]
		if !ok {
			continue
		}
		if err := assign(v.FieldByIndex(idx), val); err != nil {
			return ent, fmt.Errorf("column %s: %w", c, err)
		}
	}
	return ent, nil
}

// returning reports whether inserts read the new id back with RETURNING.
func (m *Model[T]) returning() bool {
	return m.mapping.id != nil && sqlx.BindType(m.db.DriverName()) == sqlx.DOLLAR
}

func (m *Model[T]) trace(op, q string, start time.Time, rows int64, err error) {
	var ev *zerolog.Event
	if err != nil {
		ev = m.log.Error().Err(err)
	} else {
		ev = m.log.Debug()
	}
	ev = ev.Str("op", op).
		Str("sql", q).
		Str("duration", fmt.Sprintf("%.3fms", float64(time.Since(start).Nanoseconds())/1e6))
	if rows != -1 {
		ev = ev.Int64("rows", rows)
	}
	ev.Msg("record query")
}
