package record

import (
	"fmt"
	"sort"
	"strings"
)

// Row maps column names to column values for one table row.
type Row map[string]any

// ID returns the row's id column, if present and non-nil. The column name
// matches in any case, as it does in the entity mapping.
func (r Row) ID() (any, bool) {
	v, ok := r[idColumn]
	if !ok {
		for k, kv := range r {
			if strings.EqualFold(k, idColumn) {
				v, ok = kv, true
				break
			}
		}
	}
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (r Row) String() string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(fmt.Sprint(r[k]))
	}
	b.WriteString("}")
	return b.String()
}

// normalize converts driver byte slices to strings so rows are printable and comparable.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
