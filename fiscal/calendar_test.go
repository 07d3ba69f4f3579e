package fiscal

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestClassifyJanMarBelongsToPriorYear(t *testing.T) {
	fy := Classify(date(2026, time.February, 10))
	assert.Equal(t, "2025-26", fy.Label)
	assert.Equal(t, 2025, fy.StartYear)
	assert.Equal(t, 2026, fy.EndYear)
}

func TestClassifyAprDecBelongsToSameYear(t *testing.T) {
	fy := Classify(date(2025, time.July, 15))
	assert.Equal(t, "2025-26", fy.Label)
	assert.Equal(t, date(2025, time.April, 1), fy.Start)
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		in   time.Time
		want string
	}{
		{date(2026, time.March, 31), "2025-26"},
		{date(2026, time.April, 1), "2026-27"},
		{date(2025, time.December, 31), "2025-26"},
		{date(2025, time.January, 1), "2024-25"},
		{date(2099, time.June, 1), "2099-00"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.in).Label, "classify %s", tc.in)
	}
}

func TestClassifyLabelPerMonth(t *testing.T) {
	// Jan–Mar of year Y labels (Y-1)-YY; Apr–Dec labels Y-(Y+1).
	year := 2025
	for m := time.January; m <= time.December; m++ {
		fy := Classify(date(year, m, 15))
		want := Label(year)
		if m < time.April {
			want = Label(year - 1)
		}
		assert.Equal(t, want, fy.Label, "month %s", m)
	}
}

func TestEveryDateContainedInExactlyItsYear(t *testing.T) {
	d := date(2024, time.January, 1)
	for i := 0; i < 730; i++ {
		fy := Classify(d)
		require.True(t, fy.Contains(d), "%s not inside its own FY %s", d, fy.Label)
		require.False(t, Classify(fy.End.Add(time.Nanosecond)).Label == fy.Label)
		d = d.AddDate(0, 0, 1)
	}
}

func TestLabelFormat(t *testing.T) {
	assert.Equal(t, "2025-26", Label(2025))
	assert.Equal(t, "1999-00", Label(1999))
	assert.Equal(t, fmt.Sprintf("INV %03d/%s", 7, "2025-26"), InvoiceNumber(7, Classify(date(2025, time.May, 1))))
}
