package record

import "errors"

var (
	// ErrNotStruct is returned by NewModel when the entity type is not a struct.
	ErrNotStruct = errors.New("entity must be a struct")
	// ErrNoColumns is returned when an entity maps no writable column.
	ErrNoColumns = errors.New("no writable columns")
	// ErrInvalidIdentifier is returned for table or column names that are not plain SQL identifiers.
	ErrInvalidIdentifier = errors.New("invalid sql identifier")
	// ErrAmbiguousSave is returned by Save when more than one row is buffered.
	ErrAmbiguousSave = errors.New("save requires a single loaded row; use UpdateAll for bulk updates")
	// ErrNotLoaded is returned by UpdateAll on a record with an empty row buffer.
	ErrNotLoaded = errors.New("no rows loaded")
	// ErrNoRowID is returned when a buffered row carries no id column.
	ErrNoRowID = errors.New("loaded row has no id")
	// ErrUnknownColumn is returned when UpdateAll names a column the entity does not map.
	ErrUnknownColumn = errors.New("unknown column")
)
