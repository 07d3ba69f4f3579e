package fiscal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memMarker struct {
	label    string
	set      bool
	sequence int
}

func (m *memMarker) Label() (string, bool, error) { return m.label, m.set, nil }
func (m *memMarker) SetLabel(label string) error  { m.label, m.set = label, true; return nil }
func (m *memMarker) ResetSequence() error         { m.sequence = 0; return nil }

type memLive struct {
	invoices []Record
	payments []Record
}

func (m *memLive) All() ([]Record, []Record, error) {
	return append([]Record(nil), m.invoices...), append([]Record(nil), m.payments...), nil
}

func (m *memLive) Remove(invoiceIDs, paymentIDs []string) error {
	m.invoices = dropIDs(m.invoices, invoiceIDs)
	m.payments = dropIDs(m.payments, paymentIDs)
	return nil
}

func dropIDs(records []Record, ids []string) []Record {
	gone := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		gone[id] = struct{}{}
	}
	kept := records[:0]
	for _, r := range records {
		if _, ok := gone[r.ID]; !ok {
			kept = append(kept, r)
		}
	}
	return kept
}

// failingArchive fails the first append to simulate a mid-move crash.
type failingArchive struct {
	*MemoryArchive
	failures int
}

func (f *failingArchive) Append(set ArchivedSet) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("storage unavailable")
	}
	return f.MemoryArchive.Append(set)
}

func newController(marker *memMarker, live *memLive, archive ArchiveStore, now time.Time) *Controller {
	return &Controller{
		Marker:  marker,
		Live:    live,
		Archive: archive,
		Now:     func() time.Time { return now },
	}
}

func TestFirstRunInitializesMarkerWithoutArchiving(t *testing.T) {
	marker := &memMarker{}
	live := &memLive{invoices: []Record{rec("inv-1", date(2024, time.June, 1))}}
	archive := NewMemoryArchive()

	report, err := newController(marker, live, archive, date(2025, time.July, 1)).CheckAndTransition()
	require.NoError(t, err)
	assert.True(t, report.Initialized)
	assert.False(t, report.Transitioned)
	assert.Equal(t, "2025-26", marker.label)
	assert.Len(t, live.invoices, 1)

	labels, _ := archive.Labels()
	assert.Empty(t, labels)
}

func TestSettledRunIsNoop(t *testing.T) {
	marker := &memMarker{label: "2025-26", set: true}
	live := &memLive{invoices: []Record{rec("inv-1", date(2025, time.May, 1))}}

	report, err := newController(marker, live, NewMemoryArchive(), date(2025, time.July, 1)).CheckAndTransition()
	require.NoError(t, err)
	assert.False(t, report.Initialized)
	assert.False(t, report.Transitioned)
	assert.Len(t, live.invoices, 1)
}

func TestTransitionArchivesPriorYearRecords(t *testing.T) {
	// Run on 2026-04-02 with the marker still on 2025-26: everything dated
	// before 2026-04-01 moves to the archive, current records stay live.
	marker := &memMarker{label: "2025-26", set: true, sequence: 42}
	live := &memLive{
		invoices: []Record{
			rec("inv-1", date(2025, time.July, 15)),
			rec("inv-2", date(2026, time.February, 10)),
			rec("inv-3", date(2026, time.April, 1)),
			rec("inv-old", date(2024, time.December, 25)),
		},
		payments: []Record{
			rec("pay-1", date(2025, time.August, 1)),
			rec("pay-2", date(2026, time.April, 2)),
		},
	}
	archive := NewMemoryArchive()

	ctrl := newController(marker, live, archive, date(2026, time.April, 2))
	report, err := ctrl.CheckAndTransition()
	require.NoError(t, err)
	assert.True(t, report.Transitioned)
	assert.Equal(t, "2026-27", marker.label)
	assert.Equal(t, 0, marker.sequence)

	// Live set keeps only current-year records.
	require.Len(t, live.invoices, 1)
	assert.Equal(t, "inv-3", live.invoices[0].ID)
	require.Len(t, live.payments, 1)
	assert.Equal(t, "pay-2", live.payments[0].ID)

	// Prior records landed under their own labels.
	prior, err := archive.Read("2025-26")
	require.NoError(t, err)
	assert.Len(t, prior.Invoices, 2)
	assert.Len(t, prior.Payments, 1)

	older, err := archive.Read("2024-25")
	require.NoError(t, err)
	assert.Len(t, older.Invoices, 1)

	// Re-running immediately is a no-op.
	report, err = ctrl.CheckAndTransition()
	require.NoError(t, err)
	assert.False(t, report.Transitioned)
	prior, _ = archive.Read("2025-26")
	assert.Len(t, prior.Invoices, 2)
}

func TestTransitionRetryConvergesAfterFailure(t *testing.T) {
	marker := &memMarker{label: "2025-26", set: true}
	live := &memLive{invoices: []Record{
		rec("inv-1", date(2025, time.July, 15)),
		rec("inv-2", date(2026, time.April, 5)),
	}}
	archive := &failingArchive{MemoryArchive: NewMemoryArchive(), failures: 1}

	ctrl := newController(marker, live, archive, date(2026, time.April, 6))

	_, err := ctrl.CheckAndTransition()
	require.ErrorIs(t, err, ErrTransitionIncomplete)
	// Marker did not advance, so the retry re-runs the move.
	assert.Equal(t, "2025-26", marker.label)

	report, err := ctrl.CheckAndTransition()
	require.NoError(t, err)
	assert.True(t, report.Transitioned)

	got, err := archive.Read("2025-26")
	require.NoError(t, err)
	assert.Len(t, got.Invoices, 1)
	require.Len(t, live.invoices, 1)
	assert.Equal(t, "inv-2", live.invoices[0].ID)
}
