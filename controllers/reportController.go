package controllers

import (
	"time"

	"esa-billing-backend/database"
	"esa-billing-backend/fiscal"
	"esa-billing-backend/models"

	"github.com/gofiber/fiber/v2"
)

// GSTSummary aggregates the tax fields of published invoices for one
// fiscal year. Aggregation happens here, invoice by invoice; the engine
// only derives per-invoice fields.
type GSTSummary struct {
	FYLabel      string            `json:"fy_label"`
	InvoiceCount int               `json:"invoice_count"`
	TaxableValue float64           `json:"taxable_value"`
	CGST         float64           `json:"cgst"`
	SGST         float64           `json:"sgst"`
	IGST         float64           `json:"igst"`
	Months       []GSTMonthSummary `json:"months"`
}

type GSTMonthSummary struct {
	Month        string  `json:"month"` // "2025-07"
	TaxableValue float64 `json:"taxable_value"`
	CGST         float64 `json:"cgst"`
	SGST         float64 `json:"sgst"`
	IGST         float64 `json:"igst"`
}

// TDSSummary reports withholding for one fiscal year.
type TDSSummary struct {
	FYLabel      string  `json:"fy_label"`
	InvoiceCount int     `json:"invoice_count"`
	GrossAmount  float64 `json:"gross_amount"`
	TDSAmount    float64 `json:"tds_amount"`
	NetPayable   float64 `json:"net_payable"`
	TDSRealized  float64 `json:"tds_realized"` // withheld on settled invoices
}

// SummarizeGST folds published invoices of fy into a GSTSummary.
func SummarizeGST(invoices []models.Invoice, fy fiscal.FinancialYear) GSTSummary {
	summary := GSTSummary{FYLabel: fy.Label}
	byMonth := make(map[string]*GSTMonthSummary)
	for _, inv := range invoices {
		if !inv.Published || !fy.Contains(inv.InvoiceDate) {
			continue
		}
		summary.InvoiceCount++
		summary.TaxableValue += inv.Subtotal
		summary.CGST += inv.CGST
		summary.SGST += inv.SGST
		summary.IGST += inv.IGST

		key := inv.InvoiceDate.Format("2006-01")
		m, ok := byMonth[key]
		if !ok {
			m = &GSTMonthSummary{Month: key}
			byMonth[key] = m
		}
		m.TaxableValue += inv.Subtotal
		m.CGST += inv.CGST
		m.SGST += inv.SGST
		m.IGST += inv.IGST
	}

	// Emit months in calendar order April through March.
	for i := 0; i < 12; i++ {
		key := fy.Start.AddDate(0, i, 0).Format("2006-01")
		if m, ok := byMonth[key]; ok {
			summary.Months = append(summary.Months, *m)
		}
	}
	return summary
}

// SummarizeTDS folds published invoices of fy into a TDSSummary. TDS counts
// as realized once the invoice is fully settled.
func SummarizeTDS(invoices []models.Invoice, fy fiscal.FinancialYear, now time.Time) TDSSummary {
	summary := TDSSummary{FYLabel: fy.Label}
	for _, inv := range invoices {
		if !inv.Published || !fy.Contains(inv.InvoiceDate) {
			continue
		}
		summary.InvoiceCount++
		summary.GrossAmount += inv.TotalAmount
		summary.TDSAmount += inv.TDSAmount
		summary.NetPayable += inv.NetPayable()
		if fiscal.DeriveStatus(inv.PaidTotal, inv.NetPayable(), inv.DueDate, now) == fiscal.StatusPaid {
			summary.TDSRealized += inv.TDSAmount
		}
	}
	return summary
}

func currentFYInvoices(c *fiber.Ctx) ([]models.Invoice, fiscal.FinancialYear, error) {
	db, err := database.FromCtx(c)
	if err != nil {
		return nil, fiscal.FinancialYear{}, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	fy := fiscal.Current(time.Now())
	var invoices []models.Invoice
	if err := db.Where("invoice_date BETWEEN ? AND ?", fy.Start, fy.End).
		Find(&invoices).Error; err != nil {
		return nil, fy, fiber.NewError(fiber.StatusInternalServerError, "could not load invoices")
	}
	return invoices, fy, nil
}

func GetGSTReport(c *fiber.Ctx) error {
	invoices, fy, err := currentFYInvoices(c)
	if err != nil {
		return err
	}
	return c.JSON(SummarizeGST(invoices, fy))
}

func GetTDSReport(c *fiber.Ctx) error {
	invoices, fy, err := currentFYInvoices(c)
	if err != nil {
		return err
	}
	return c.JSON(SummarizeTDS(invoices, fy, time.Now()))
}

func GetFiscalYear(c *fiber.Ctx) error {
	return c.JSON(fiscal.Current(time.Now()))
}

func ListFiscalArchives(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	store := &database.ArchiveStore{DB: db}
	labels, err := store.Labels()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list archives")
	}
	return c.JSON(fiber.Map{
		"labels":  labels,
		"message": "success",
	})
}

func GetFiscalArchive(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	store := &database.ArchiveStore{DB: db}
	set, err := store.Read(c.Params("label"))
	if err != nil {
		return err // ErrArchiveNotFound maps to 404 in the error handler
	}
	return c.JSON(set)
}

// RunFiscalTransition triggers the year-boundary check by hand. The same
// check runs on the daily schedule and at startup; re-running is safe.
func RunFiscalTransition(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	report, err := database.NewFiscalController(db, time.Now).CheckAndTransition()
	if err != nil {
		return err
	}
	return c.JSON(report)
}
