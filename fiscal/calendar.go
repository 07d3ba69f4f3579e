// Package fiscal implements the financial-year lifecycle used by the
// billing app: date classification into April–March fiscal years, invoice
// tax/status derivation, and the year-end archive transition. The package
// holds no state of its own; storage and clock are injected by the host.
package fiscal

import (
	"fmt"
	"time"
)

// FinancialYear is the April 1 – March 31 accounting period containing a
// date. It is derived, never persisted on its own.
type FinancialYear struct {
	StartYear int
	EndYear   int
	Label     string // "2025-26"
	Start     time.Time
	End       time.Time
}

// Classify maps a date to its financial year. Jan–Mar belongs to the year
// that started the previous April; Apr–Dec to the year starting this April.
func Classify(t time.Time) FinancialYear {
	startYear := t.Year()
	if t.Month() < time.April {
		startYear--
	}
	loc := t.Location()
	start := time.Date(startYear, time.April, 1, 0, 0, 0, 0, loc)
	// End of day on March 31 of the following year.
	end := time.Date(startYear+1, time.April, 1, 0, 0, 0, 0, loc).Add(-time.Nanosecond)
	return FinancialYear{
		StartYear: startYear,
		EndYear:   startYear + 1,
		Label:     Label(startYear),
		Start:     start,
		End:       end,
	}
}

// Current is the financial year containing now.
func Current(now time.Time) FinancialYear {
	return Classify(now)
}

// Label formats a start year as "YYYY-YY".
func Label(startYear int) string {
	return fmt.Sprintf("%d-%02d", startYear, (startYear+1)%100)
}

// Contains reports whether t falls inside the financial year.
func (fy FinancialYear) Contains(t time.Time) bool {
	return !t.Before(fy.Start) && !t.After(fy.End)
}
