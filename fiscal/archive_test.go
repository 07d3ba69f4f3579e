package fiscal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id string, d time.Time) Record {
	return Record{ID: id, Date: d, Doc: json.RawMessage(`{"id":"` + id + `"}`)}
}

func TestArchiveAppendIsIdempotent(t *testing.T) {
	store := NewMemoryArchive()
	set := ArchivedSet{
		Label:    "2025-26",
		Invoices: []Record{rec("inv-1", date(2025, time.May, 1)), rec("inv-2", date(2025, time.June, 1))},
		Payments: []Record{rec("pay-1", date(2025, time.May, 20))},
	}

	require.NoError(t, store.Append(set))
	require.NoError(t, store.Append(set))

	got, err := store.Read("2025-26")
	require.NoError(t, err)
	assert.Len(t, got.Invoices, 2)
	assert.Len(t, got.Payments, 1)
}

func TestArchiveAppendMergesNewRecordsOnly(t *testing.T) {
	store := NewMemoryArchive()
	require.NoError(t, store.Append(ArchivedSet{
		Label:    "2025-26",
		Invoices: []Record{rec("inv-1", date(2025, time.May, 1))},
	}))
	require.NoError(t, store.Append(ArchivedSet{
		Label: "2025-26",
		Invoices: []Record{
			rec("inv-1", date(2025, time.May, 1)),
			rec("inv-3", date(2026, time.January, 5)),
		},
	}))

	got, err := store.Read("2025-26")
	require.NoError(t, err)
	require.Len(t, got.Invoices, 2)
	assert.Equal(t, "inv-1", got.Invoices[0].ID)
	assert.Equal(t, "inv-3", got.Invoices[1].ID)
}

func TestArchiveLabelsMostRecentFirst(t *testing.T) {
	store := NewMemoryArchive()
	for _, label := range []string{"2023-24", "2025-26", "2024-25"} {
		require.NoError(t, store.Append(ArchivedSet{Label: label}))
	}
	labels, err := store.Labels()
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-26", "2024-25", "2023-24"}, labels)
}

func TestArchiveReadUnknownLabel(t *testing.T) {
	store := NewMemoryArchive()
	_, err := store.Read("2019-20")
	assert.ErrorIs(t, err, ErrArchiveNotFound)
}
