package fiscal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleRates = TaxRates{GSTRate: 0.18, TDSRate: 0.20}

func sampleItems() []LineItem {
	return []LineItem{
		{ProductID: "p1", Name: "Consulting", HSNCode: "9983", Quantity: 4, UnitPrice: 1500},
		{ProductID: "p2", Name: "Hosting", HSNCode: "9984", Quantity: 2, UnitPrice: 2000},
	}
}

func TestComputeIntraStateWorkedExample(t *testing.T) {
	// Subtotal 10,000 intra-state: 900 + 900 GST, 11,800 gross,
	// 2,360 TDS at 20%, net payable 9,440.
	due := date(2025, time.August, 1)
	now := date(2025, time.July, 20)

	d, err := Compute(sampleItems(), sampleRates, true, PaymentFacts{PaidAmount: 9440}, due, now)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, d.Subtotal)
	assert.Equal(t, 900.0, d.CGST)
	assert.Equal(t, 900.0, d.SGST)
	assert.Equal(t, 0.0, d.IGST)
	assert.Equal(t, 11800.0, d.Total)
	assert.Equal(t, 2360.0, d.TDS)
	assert.Equal(t, 9440.0, d.NetPayable)
	assert.Equal(t, StatusPaid, d.Status)
}

func TestComputeInterStateUsesIGSTOnly(t *testing.T) {
	d, err := Compute(sampleItems(), sampleRates, false, PaymentFacts{}, date(2025, time.August, 1), date(2025, time.July, 20))
	require.NoError(t, err)
	assert.Equal(t, 0.0, d.CGST)
	assert.Equal(t, 0.0, d.SGST)
	assert.Equal(t, 1800.0, d.IGST)
	assert.Equal(t, 11800.0, d.Total)
}

func TestComputeStatusTransitions(t *testing.T) {
	due := date(2025, time.August, 1)
	cases := []struct {
		name string
		paid float64
		now  time.Time
		want Status
	}{
		{"full payment", 9440, date(2025, time.September, 1), StatusPaid},
		{"partial payment", 4000, date(2025, time.September, 1), StatusPartial},
		{"unpaid before due", 0, date(2025, time.July, 20), StatusUnpaid},
		{"unpaid past due", 0, date(2025, time.September, 1), StatusOverdue},
		{"unpaid on due date", 0, due, StatusUnpaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Compute(sampleItems(), sampleRates, true, PaymentFacts{PaidAmount: tc.paid}, due, tc.now)
			require.NoError(t, err)
			assert.Equal(t, tc.want, d.Status)
		})
	}
}

func TestComputeRoundsPerStep(t *testing.T) {
	// Fractional subtotal 3333.33: each GST half rounds independently
	// (299.9997 -> 300), and TDS rounds on the summed total (786.67 -> 787).
	items := []LineItem{{ProductID: "p1", Quantity: 3, UnitPrice: 1111.11}}
	d, err := Compute(items, sampleRates, true, PaymentFacts{}, date(2025, time.August, 1), date(2025, time.July, 1))
	require.NoError(t, err)
	assert.InDelta(t, 3333.33, d.Subtotal, 0.001)
	assert.Equal(t, 300.0, d.CGST)
	assert.Equal(t, 300.0, d.SGST)
	assert.InDelta(t, 3933.33, d.Total, 0.001)
	assert.Equal(t, 787.0, d.TDS)
}

func TestComputeIsDeterministic(t *testing.T) {
	due := date(2025, time.August, 1)
	now := date(2025, time.July, 20)
	first, err := Compute(sampleItems(), sampleRates, true, PaymentFacts{PaidAmount: 4000}, due, now)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Compute(sampleItems(), sampleRates, true, PaymentFacts{PaidAmount: 4000}, due, now)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestComputeRejectsBadInput(t *testing.T) {
	due := date(2025, time.August, 1)
	now := due

	_, err := Compute(nil, sampleRates, true, PaymentFacts{}, due, now)
	assert.ErrorIs(t, err, ErrInvalidInvoiceInput)

	_, err = Compute([]LineItem{{ProductID: "p1", Quantity: 0, UnitPrice: 10}}, sampleRates, true, PaymentFacts{}, due, now)
	assert.ErrorIs(t, err, ErrInvalidInvoiceInput)

	_, err = Compute([]LineItem{{ProductID: "p1", Quantity: 1, UnitPrice: -1}}, sampleRates, true, PaymentFacts{}, due, now)
	assert.ErrorIs(t, err, ErrInvalidInvoiceInput)

	dup := []LineItem{
		{ProductID: "p1", Quantity: 1, UnitPrice: 10},
		{ProductID: "p1", Quantity: 2, UnitPrice: 10},
	}
	_, err = Compute(dup, sampleRates, true, PaymentFacts{}, due, now)
	assert.ErrorIs(t, err, ErrInvalidInvoiceInput)

	six := make([]LineItem, 6)
	for i := range six {
		six[i] = LineItem{ProductID: string(rune('a' + i)), Quantity: 1, UnitPrice: 10}
	}
	_, err = Compute(six, sampleRates, true, PaymentFacts{}, due, now)
	assert.ErrorIs(t, err, ErrInvalidInvoiceInput)
}

func TestCheckPayment(t *testing.T) {
	require.NoError(t, CheckPayment(0, 9440, 9440))
	require.NoError(t, CheckPayment(4000, 5440, 9440))

	err := CheckPayment(4000, 6000, 9440)
	assert.ErrorIs(t, err, ErrOverpayment)

	err = CheckPayment(0, 0, 9440)
	assert.ErrorIs(t, err, ErrInvalidInvoiceInput)
}

func TestDueDateTermWindow(t *testing.T) {
	issued := date(2025, time.July, 15)

	due, err := DueDate(issued, 17)
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.August, 1), due)

	_, err = DueDate(issued, 14)
	assert.ErrorIs(t, err, ErrInvalidInvoiceInput)
	_, err = DueDate(issued, 46)
	assert.ErrorIs(t, err, ErrInvalidInvoiceInput)
}
