// Package model contains the entities persisted through the record layer.
package model

// Item is a catalogue entry stored in the "items" table.
// Fields tagged with db are persisted; the column names must match the table.
type Item struct {
	ID    int64   `db:"id" json:"id"`
	Name  string  `db:"name" json:"name"`
	Price float64 `db:"price" json:"price"`
}
