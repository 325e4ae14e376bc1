package record

import (
	"strings"

	"github.com/jinzhu/inflection"
)

// Namer maps an entity type name to its table name.
type Namer interface {
	TableName(typeName string) string
}

// Tabler is implemented by entities that declare their table explicitly.
// It takes precedence over the Namer.
type Tabler interface {
	TableName() string
}

// NaiveNamer lower-cases the simple type name and appends "s".
// There is no irregular-plural handling: Category maps to "categorys".
type NaiveNamer struct{}

// TableName implements Namer.
func (NaiveNamer) TableName(typeName string) string {
	return strings.ToLower(SimpleName(typeName)) + "s"
}

// InflectNamer pluralizes with English inflection rules: Category maps to "categories".
type InflectNamer struct{}

// TableName implements Namer.
func (InflectNamer) TableName(typeName string) string {
	return inflection.Plural(strings.ToLower(SimpleName(typeName)))
}

// NamerFor returns the namer registered under mode ("naive" or "inflect").
// Unknown modes fall back to NaiveNamer.
func NamerFor(mode string) Namer {
	switch strings.ToLower(mode) {
	case "inflect", "inflection":
		return InflectNamer{}
	default:
		return NaiveNamer{}
	}
}

// TableName derives a table name with the default naive rule.
func TableName(typeName string) string {
	return NaiveNamer{}.TableName(typeName)
}

// SimpleName strips a package qualifier and generic type arguments from a type name,
// e.g. "recordkit/internal/model.Item" and "Page[int]" become "Item" and "Page".
func SimpleName(typeName string) string {
	if i := strings.IndexByte(typeName, '['); i >= 0 {
		typeName = typeName[:i]
	}
	if i := strings.LastIndexAny(typeName, `./\`); i >= 0 {
		typeName = typeName[i+1:]
	}
	return typeName
}
