package fiscal

import (
	"encoding/json"
	"sort"
	"time"
)

// Record is one archived document: an invoice or a payment. Doc carries the
// full serialized form so historical reporting does not depend on the live
// schema; ID and Date are what the engine itself needs.
type Record struct {
	ID   string          `json:"id"`
	Date time.Time       `json:"date"`
	Doc  json.RawMessage `json:"doc"`
}

// ArchivedSet is the stored content for one fiscal-year label.
type ArchivedSet struct {
	Label    string    `json:"label"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Invoices []Record  `json:"invoices"`
	Payments []Record  `json:"payments"`
}

// ArchiveStore persists closed-year record sets keyed by FY label.
//
// Append must be idempotent: re-appending a record id already stored under
// the same label is a no-op, so a retried transition converges instead of
// duplicating. No deletion is exposed; retention is permanent.
type ArchiveStore interface {
	Append(set ArchivedSet) error
	Labels() ([]string, error) // most recent first
	Read(label string) (*ArchivedSet, error)
}

// MergeRecords appends the records in add whose ids are not already in
// existing, preserving order. Shared by the archive implementations.
func MergeRecords(existing, add []Record) []Record {
	seen := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		seen[r.ID] = struct{}{}
	}
	out := existing
	for _, r := range add {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// SortLabels orders FY labels most recent first. The "YYYY-YY" form sorts
// correctly as a plain string.
func SortLabels(labels []string) {
	sort.Sort(sort.Reverse(sort.StringSlice(labels)))
}

// MemoryArchive is an in-process ArchiveStore. The server uses the GORM
// implementation; this one backs tests and the demo seeder.
type MemoryArchive struct {
	sets map[string]*ArchivedSet
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{sets: make(map[string]*ArchivedSet)}
}

func (m *MemoryArchive) Append(set ArchivedSet) error {
	cur, ok := m.sets[set.Label]
	if !ok {
		cp := set
		cp.Invoices = MergeRecords(nil, set.Invoices)
		cp.Payments = MergeRecords(nil, set.Payments)
		m.sets[set.Label] = &cp
		return nil
	}
	cur.Invoices = MergeRecords(cur.Invoices, set.Invoices)
	cur.Payments = MergeRecords(cur.Payments, set.Payments)
	return nil
}

func (m *MemoryArchive) Labels() ([]string, error) {
	labels := make([]string, 0, len(m.sets))
	for l := range m.sets {
		labels = append(labels, l)
	}
	SortLabels(labels)
	return labels, nil
}

func (m *MemoryArchive) Read(label string) (*ArchivedSet, error) {
	set, ok := m.sets[label]
	if !ok {
		return nil, ErrArchiveNotFound
	}
	cp := *set
	return &cp, nil
}
