package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esa-billing-backend/fiscal"
	"esa-billing-backend/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fyInvoices() []models.Invoice {
	return []models.Invoice{
		{ // intra-state, settled
			Published: true, InvoiceDate: day(2025, time.July, 15), DueDate: day(2025, time.August, 1),
			Subtotal: 10000, CGST: 900, SGST: 900, TotalAmount: 11800, TDSAmount: 2360, PaidTotal: 9440,
		},
		{ // inter-state, unpaid
			Published: true, InvoiceDate: day(2025, time.July, 20), DueDate: day(2025, time.September, 1),
			Subtotal: 5000, IGST: 900, TotalAmount: 5900, TDSAmount: 1180,
		},
		{ // different month
			Published: true, InvoiceDate: day(2026, time.January, 10), DueDate: day(2026, time.February, 1),
			Subtotal: 2000, CGST: 180, SGST: 180, TotalAmount: 2360, TDSAmount: 472,
		},
		{ // draft: excluded
			Published: false, InvoiceDate: day(2025, time.June, 1),
			Subtotal: 99999, CGST: 9000, SGST: 9000,
		},
		{ // prior fiscal year: excluded
			Published: true, InvoiceDate: day(2025, time.March, 1),
			Subtotal: 7777, CGST: 700, SGST: 700,
		},
	}
}

func TestSummarizeGST(t *testing.T) {
	fy := fiscal.Classify(day(2025, time.July, 1))
	summary := SummarizeGST(fyInvoices(), fy)

	assert.Equal(t, "2025-26", summary.FYLabel)
	assert.Equal(t, 3, summary.InvoiceCount)
	assert.Equal(t, 17000.0, summary.TaxableValue)
	assert.Equal(t, 1080.0, summary.CGST)
	assert.Equal(t, 1080.0, summary.SGST)
	assert.Equal(t, 900.0, summary.IGST)

	require.Len(t, summary.Months, 2)
	assert.Equal(t, "2025-07", summary.Months[0].Month)
	assert.Equal(t, 15000.0, summary.Months[0].TaxableValue)
	assert.Equal(t, "2026-01", summary.Months[1].Month)
	assert.Equal(t, 2000.0, summary.Months[1].TaxableValue)
}

func TestSummarizeTDS(t *testing.T) {
	fy := fiscal.Classify(day(2025, time.July, 1))
	now := day(2025, time.October, 1)
	summary := SummarizeTDS(fyInvoices(), fy, now)

	assert.Equal(t, 3, summary.InvoiceCount)
	assert.Equal(t, 20060.0, summary.GrossAmount)
	assert.Equal(t, 4012.0, summary.TDSAmount)
	assert.Equal(t, 16048.0, summary.NetPayable)
	// Only the settled invoice's withholding is realized.
	assert.Equal(t, 2360.0, summary.TDSRealized)
}
