package models

import "time"

// PendingEntry is the in-progress measurement being edited. The zero value is
// the default state a fresh or freshly committed session starts from.
type PendingEntry struct {
	Barcode      string  `json:"barcode"`
	DrugName     string  `json:"drugName"`
	WeightBox    float64 `json:"weightBox"`
	WeightStrip  float64 `json:"weightStrip"`
	WeightTablet float64 `json:"weightTablet"`
	BulkQuantity int     `json:"bulkQuantity"`
}

// Entry is an immutable snapshot of a PendingEntry taken at commit time.
// Field order matches the exported column order.
type Entry struct {
	Barcode      string    `json:"barcode" csv:"Barcode"`
	DrugName     string    `json:"drugName" csv:"Drug Name"`
	WeightBox    float64   `json:"weightBox" csv:"Weight Box"`
	WeightStrip  float64   `json:"weightStrip" csv:"Weight Strip"`
	WeightTablet float64   `json:"weightTablet" csv:"Weight Tablet"`
	BulkQuantity int       `json:"bulkQuantity" csv:"Bulk Quantity"`
	CommittedAt  time.Time `json:"committedAt" csv:"-"`
}

// Snapshot copies the pending values into a committed Entry.
func (p PendingEntry) Snapshot(at time.Time) Entry {
	return Entry{
		Barcode:      p.Barcode,
		DrugName:     p.DrugName,
		WeightBox:    p.WeightBox,
		WeightStrip:  p.WeightStrip,
		WeightTablet: p.WeightTablet,
		BulkQuantity: p.BulkQuantity,
		CommittedAt:  at,
	}
}

// ResultTable is the append-only, insertion-ordered list of committed entries.
type ResultTable struct {
	rows []Entry
}

// NewResultTable builds a table holding a copy of rows, in order.
func NewResultTable(rows ...Entry) ResultTable {
	return ResultTable{rows: append([]Entry(nil), rows...)}
}

// Len returns the number of committed entries.
func (t ResultTable) Len() int {
	return len(t.rows)
}

// Rows returns a copy of the committed entries in commit order.
func (t ResultTable) Rows() []Entry {
	out := make([]Entry, len(t.rows))
	copy(out, t.rows)
	return out
}

// appendEntry returns a table with e added at the end. The receiver is left
// untouched so earlier Session values keep their own view of the table.
func (t ResultTable) appendEntry(e Entry) ResultTable {
	rows := make([]Entry, len(t.rows), len(t.rows)+1)
	copy(rows, t.rows)
	return ResultTable{rows: append(rows, e)}
}

// Session bundles the pending entry and result table owned by one user session.
type Session struct {
	Pending PendingEntry
	Table   ResultTable
}

// Commit snapshots the pending entry into the table and resets it to defaults.
// Identifier checks belong to the caller; this is the only way a table grows.
func (s Session) Commit(at time.Time) (Session, Entry) {
	committed := s.Pending.Snapshot(at)
	return Session{
		Pending: PendingEntry{},
		Table:   s.Table.appendEntry(committed),
	}, committed
}
