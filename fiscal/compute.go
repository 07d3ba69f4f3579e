package fiscal

import (
	"fmt"
	"math"
	"time"
)

// Status is the invoice lifecycle state, derived at read time.
type Status string

const (
	StatusDraft   Status = "Draft"
	StatusUnpaid  Status = "Unpaid"
	StatusPartial Status = "Partial"
	StatusPaid    Status = "Paid"
	StatusOverdue Status = "Overdue"
)

// Payment term bounds in days.
const (
	MinTermDays = 15
	MaxTermDays = 45
)

// MaxLineItems caps the number of line items per invoice.
const MaxLineItems = 5

// TaxRates are the policy inputs for derivation. GSTRate is the combined
// rate (0.18 = 9% CGST + 9% SGST intra-state, or 18% IGST inter-state);
// TDSRate is the withholding rate applied to the gross total.
type TaxRates struct {
	GSTRate float64
	TDSRate float64
}

// LineItem is one invoice line as the engine sees it.
type LineItem struct {
	ProductID string
	Name      string
	HSNCode   string
	Quantity  int
	UnitPrice float64
}

// Total is quantity times unit price.
func (li LineItem) Total() float64 {
	return float64(li.Quantity) * li.UnitPrice
}

// PaymentFacts are the recorded-payment inputs to status derivation.
type PaymentFacts struct {
	PaidAmount float64
}

// Derived holds every monetary field computed from an invoice's inputs.
type Derived struct {
	Subtotal   float64
	CGST       float64
	SGST       float64
	IGST       float64
	Total      float64
	TDS        float64
	NetPayable float64
	Status     Status
}

// RoundUnit rounds a non-negative amount to the nearest whole currency
// unit, half up. Every monetary rounding in the engine goes through here
// so the rounding policy is a single edit.
func RoundUnit(x float64) float64 {
	return math.Round(x)
}

// paymentEpsilon absorbs float drift when comparing currency amounts.
const paymentEpsilon = 0.005

// Compute derives all monetary fields and the status for one invoice.
// It is a pure function of its arguments: same inputs, same output.
//
// Tax is rounded per step (round-then-sum), matching the historical
// behavior of the billing data: CGST and SGST are each rounded at half the
// combined rate, TDS is rounded on the already-rounded total.
func Compute(items []LineItem, rates TaxRates, sameState bool, facts PaymentFacts, dueDate, now time.Time) (Derived, error) {
	if err := ValidateItems(items); err != nil {
		return Derived{}, err
	}

	var subtotal float64
	for _, li := range items {
		subtotal += li.Total()
	}

	var d Derived
	d.Subtotal = subtotal
	if sameState {
		d.CGST = RoundUnit(subtotal * rates.GSTRate / 2)
		d.SGST = RoundUnit(subtotal * rates.GSTRate / 2)
	} else {
		d.IGST = RoundUnit(subtotal * rates.GSTRate)
	}
	d.Total = subtotal + d.CGST + d.SGST + d.IGST
	d.TDS = RoundUnit(d.Total * rates.TDSRate)
	d.NetPayable = d.Total - d.TDS
	d.Status = DeriveStatus(facts.PaidAmount, d.NetPayable, dueDate, now)
	return d, nil
}

// ValidateItems enforces the line-item rules: 1–5 items, positive
// quantities, non-negative prices, product ids unique within the invoice.
func ValidateItems(items []LineItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: invoice has no line items", ErrInvalidInvoiceInput)
	}
	if len(items) > MaxLineItems {
		return fmt.Errorf("%w: invoice has %d line items, maximum is %d", ErrInvalidInvoiceInput, len(items), MaxLineItems)
	}
	seen := make(map[string]struct{}, len(items))
	for i, li := range items {
		if li.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive at item %d", ErrInvalidInvoiceInput, i)
		}
		if li.UnitPrice < 0 {
			return fmt.Errorf("%w: unit price must not be negative at item %d", ErrInvalidInvoiceInput, i)
		}
		if _, dup := seen[li.ProductID]; dup {
			return fmt.Errorf("%w: duplicate product %s at item %d", ErrInvalidInvoiceInput, li.ProductID, i)
		}
		seen[li.ProductID] = struct{}{}
	}
	return nil
}

// DeriveStatus applies the lifecycle rule: full net payment wins over the
// due date, any partial payment is Partial, and an unpaid invoice flips
// from Unpaid to Overdue once now passes the due date.
func DeriveStatus(paid, netPayable float64, dueDate, now time.Time) Status {
	switch {
	case paid >= netPayable-paymentEpsilon:
		return StatusPaid
	case paid > 0:
		return StatusPartial
	case now.After(dueDate):
		return StatusOverdue
	default:
		return StatusUnpaid
	}
}

// CheckPayment verifies that applying amount on top of paidSoFar stays
// within net payable. Overpayments are rejected, never capped.
func CheckPayment(paidSoFar, amount, netPayable float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: payment amount must be positive", ErrInvalidInvoiceInput)
	}
	if paidSoFar+amount > netPayable+paymentEpsilon {
		return fmt.Errorf("%w: %.2f already paid, %.2f attempted, net payable %.2f", ErrOverpayment, paidSoFar, amount, netPayable)
	}
	return nil
}

// DueDate computes invoiceDate + termDays, enforcing the 15–45 day window.
func DueDate(invoiceDate time.Time, termDays int) (time.Time, error) {
	if termDays < MinTermDays || termDays > MaxTermDays {
		return time.Time{}, fmt.Errorf("%w: payment term %d days outside %d–%d", ErrInvalidInvoiceInput, termDays, MinTermDays, MaxTermDays)
	}
	return invoiceDate.AddDate(0, 0, termDays), nil
}

// InvoiceNumber formats the per-year sequence as "INV NNN/YYYY-YY".
func InvoiceNumber(seq int, fy FinancialYear) string {
	return fmt.Sprintf("INV %03d/%s", seq, fy.Label)
}
