package fiscal

import "errors"

// Sentinel errors so callers can branch on the failure class with errors.Is.
var (
	// ErrInvalidInvoiceInput rejects bad line items or terms at the input
	// boundary. Inputs are never clamped.
	ErrInvalidInvoiceInput = errors.New("invalid invoice input")

	// ErrOverpayment rejects a payment that would push the recorded total
	// past the net payable amount.
	ErrOverpayment = errors.New("payment exceeds net payable")

	// ErrArchiveNotFound is returned when reading a fiscal-year label that
	// was never archived.
	ErrArchiveNotFound = errors.New("fiscal year archive not found")

	// ErrTransitionIncomplete signals a storage failure mid-transition.
	// The transition is safe to re-run; archive appends are idempotent.
	ErrTransitionIncomplete = errors.New("fiscal year transition incomplete")
)
