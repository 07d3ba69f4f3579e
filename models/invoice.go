package models

import (
	"time"

	"gorm.io/datatypes"

	"esa-billing-backend/fiscal"
)

// Invoice is the live state of a billing document. Monetary fields are
// derived once through fiscal.Compute when the invoice is created or
// edited; status is derived at read time, never stored.
type Invoice struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	InvoiceNumber string `json:"invoice_number" gorm:"index"` // assigned on publish; unique when non-empty (see migrator)

	// Client snapshot taken at issue time. Edits to the client after the
	// invoice exists do not change what was billed.
	ClientID    string `json:"client_id" gorm:"not null;index"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	ClientState string `json:"client_state"`
	ClientGSTIN string `json:"client_gstin"`
	ClientAddr  string `json:"client_address"`
	SameState   bool   `json:"same_state"`

	Items []LineItem `json:"items" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`

	InvoiceDate time.Time `json:"invoice_date" gorm:"index"`
	TermDays    int       `json:"term_days"`
	DueDate     time.Time `json:"due_date"`

	Subtotal    float64 `json:"subtotal" gorm:"type:numeric(12,2)"`
	CGST        float64 `json:"cgst" gorm:"type:numeric(12,2)"`
	SGST        float64 `json:"sgst" gorm:"type:numeric(12,2)"`
	IGST        float64 `json:"igst" gorm:"type:numeric(12,2)"`
	TotalAmount float64 `json:"total_amount" gorm:"type:numeric(12,2)"`
	TDSAmount   float64 `json:"tds_amount" gorm:"type:numeric(12,2)"`

	// State
	Draft       bool       `json:"draft"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at"`

	// Payments rollup
	PaidTotal float64 `json:"paid_total" gorm:"type:numeric(12,2)"`

	// Derived, not persisted.
	Status fiscal.Status `json:"status" gorm:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// NetPayable is the amount the client actually remits after withholding.
func (inv *Invoice) NetPayable() float64 {
	return inv.TotalAmount - inv.TDSAmount
}

// DeriveStatus fills the transient Status field for a response.
func (inv *Invoice) DeriveStatus(now time.Time) {
	if inv.Draft && !inv.Published {
		inv.Status = fiscal.StatusDraft
		return
	}
	inv.Status = fiscal.DeriveStatus(inv.PaidTotal, inv.NetPayable(), inv.DueDate, now)
}

// FiscalItems converts the stored lines into engine line items.
func (inv *Invoice) FiscalItems() []fiscal.LineItem {
	items := make([]fiscal.LineItem, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, fiscal.LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			HSNCode:   it.HSNCode,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return items
}

type LineItem struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	InvoiceID uint    `json:"-" gorm:"index"`                   // fast join
	ProductID string  `json:"product_id" gorm:"not null;index"` // FK to products.id (see migrator)
	Product   Product `json:"-" gorm:"foreignKey:ProductID;references:Id;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	Name      string  `json:"name"`
	HSNCode   string  `json:"hsn_code"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price" gorm:"type:numeric(12,2)"`
	LineTotal float64 `json:"line_total" gorm:"type:numeric(12,2)"`
}

// Payment survives the fiscal-year transition under its own date; linked to
// invoice by id, not by a live association.
type Payment struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	InvoiceID     uint      `json:"invoice_id" gorm:"index:idx_payments_invoice_paid_at,priority:1"`
	Amount        float64   `json:"amount" gorm:"type:numeric(12,2)"`
	TDSWithheld   float64   `json:"tds_withheld" gorm:"type:numeric(12,2)"` // nonzero only on the settling payment
	Method        string    `json:"method"`
	TransactionID string    `json:"transaction_id" gorm:"uniqueIndex"`
	Note          string    `json:"note"`
	PaidAt        time.Time `json:"paid_at" gorm:"index:idx_payments_invoice_paid_at,priority:2"`
	CreatedAt     time.Time `json:"created_at"`
}

// FiscalArchive is the cold store for one closed fiscal year. Snapshot
// holds the serialized fiscal.ArchivedSet; rows are appended to (merge by
// record id) and never deleted.
type FiscalArchive struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Label     string         `json:"label" gorm:"uniqueIndex;type:VARCHAR(10)"`
	StartDate time.Time      `json:"start_date"`
	EndDate   time.Time      `json:"end_date"`
	Snapshot  datatypes.JSON `json:"snapshot" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// FiscalMarker is the single-row state of the transition controller: the
// last fiscal-year label this deployment settled on and the per-year
// invoice sequence counter.
type FiscalMarker struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	LastCheckedLabel string    `json:"last_checked_label" gorm:"type:VARCHAR(10)"`
	InvoiceSeq       int       `json:"invoice_seq"`
	UpdatedAt        time.Time `json:"updated_at"`
}
