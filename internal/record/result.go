package record

// Operation names the write a Result came from.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
)

// Result is the outcome of a write. Failures are reported through the accompanying error.
type Result struct {
	Op           Operation `json:"op"`
	RowsAffected int64     `json:"rows_affected"`
	// LastInsertID is set for inserts only.
	LastInsertID int64 `json:"last_insert_id,omitempty"`
}
