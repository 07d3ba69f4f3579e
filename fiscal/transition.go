package fiscal

import (
	"fmt"
	"time"
)

// MarkerStore persists the last fiscal-year label this process family has
// settled on, plus the per-year invoice sequence counter.
type MarkerStore interface {
	Label() (label string, ok bool, err error)
	SetLabel(label string) error
	ResetSequence() error
}

// LiveStore exposes the working set of invoices and payments. All returns
// a consistent snapshot; Remove drops the given record ids from the live
// set after they have been archived.
type LiveStore interface {
	All() (invoices, payments []Record, err error)
	Remove(invoiceIDs, paymentIDs []string) error
}

// Controller detects fiscal-year boundary crossings and moves closed-year
// records into the archive. The host invokes CheckAndTransition at process
// start and on a recurring schedule; the controller never self-schedules.
type Controller struct {
	Marker  MarkerStore
	Live    LiveStore
	Archive ArchiveStore
	Now     func() time.Time
}

// TransitionReport tells the host what a check did.
type TransitionReport struct {
	CurrentLabel     string
	Initialized      bool
	Transitioned     bool
	ArchivedInvoices map[string]int // per prior FY label
	ArchivedPayments map[string]int
}

// CheckAndTransition runs one step of the marker state machine:
//
//	no marker            -> adopt the current label, archive nothing
//	marker == current    -> no-op
//	marker != current    -> archive all non-current records under their own
//	                        FY labels, prune the live set, reset the invoice
//	                        sequence, then advance the marker
//
// Any storage failure mid-move returns ErrTransitionIncomplete; re-running
// converges because archive appends are idempotent and the marker only
// advances after the move succeeds.
func (c *Controller) CheckAndTransition() (*TransitionReport, error) {
	now := c.Now()
	current := Classify(now)
	report := &TransitionReport{CurrentLabel: current.Label}

	label, ok, err := c.Marker.Label()
	if err != nil {
		return nil, fmt.Errorf("%w: reading marker: %v", ErrTransitionIncomplete, err)
	}
	if !ok {
		// First run. Nothing precedes the first observed fiscal year.
		if err := c.Marker.SetLabel(current.Label); err != nil {
			return nil, fmt.Errorf("%w: initializing marker: %v", ErrTransitionIncomplete, err)
		}
		report.Initialized = true
		return report, nil
	}
	if label == current.Label {
		return report, nil
	}

	invoices, payments, err := c.Live.All()
	if err != nil {
		return nil, fmt.Errorf("%w: reading live set: %v", ErrTransitionIncomplete, err)
	}

	// Group every non-current record under its own year's label. A payment
	// dated in the new year stays live even if its invoice is archived.
	batches := make(map[string]*ArchivedSet)
	batch := func(t time.Time) *ArchivedSet {
		fy := Classify(t)
		set, ok := batches[fy.Label]
		if !ok {
			set = &ArchivedSet{Label: fy.Label, Start: fy.Start, End: fy.End}
			batches[fy.Label] = set
		}
		return set
	}

	var invoiceIDs, paymentIDs []string
	for _, r := range invoices {
		if current.Contains(r.Date) {
			continue
		}
		set := batch(r.Date)
		set.Invoices = append(set.Invoices, r)
		invoiceIDs = append(invoiceIDs, r.ID)
	}
	for _, r := range payments {
		if current.Contains(r.Date) {
			continue
		}
		set := batch(r.Date)
		set.Payments = append(set.Payments, r)
		paymentIDs = append(paymentIDs, r.ID)
	}

	report.ArchivedInvoices = make(map[string]int, len(batches))
	report.ArchivedPayments = make(map[string]int, len(batches))
	for label, set := range batches {
		if err := c.Archive.Append(*set); err != nil {
			return nil, fmt.Errorf("%w: archiving %s: %v", ErrTransitionIncomplete, label, err)
		}
		report.ArchivedInvoices[label] = len(set.Invoices)
		report.ArchivedPayments[label] = len(set.Payments)
	}

	if err := c.Live.Remove(invoiceIDs, paymentIDs); err != nil {
		return nil, fmt.Errorf("%w: pruning live set: %v", ErrTransitionIncomplete, err)
	}
	if err := c.Marker.ResetSequence(); err != nil {
		return nil, fmt.Errorf("%w: resetting invoice sequence: %v", ErrTransitionIncomplete, err)
	}
	if err := c.Marker.SetLabel(current.Label); err != nil {
		return nil, fmt.Errorf("%w: advancing marker: %v", ErrTransitionIncomplete, err)
	}
	report.Transitioned = true
	return report, nil
}
