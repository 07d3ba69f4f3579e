package controllers

import (
	"fmt"
	"time"

	"esa-billing-backend/database"
	"esa-billing-backend/fiscal"
	"esa-billing-backend/middlewares"
	"esa-billing-backend/models"
	"esa-billing-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

func ratesFromEnv() fiscal.TaxRates {
	return fiscal.TaxRates{
		GSTRate: utils.EnvFloat("GST_RATE", 0.18),
		TDSRate: utils.EnvFloat("TDS_RATE", 0.20),
	}
}

func businessState() string {
	return utils.EnvStr("BUSINESS_STATE", "Karnataka")
}

type InvoiceItemInput struct {
	ProductID string   `json:"product_id" validate:"required"`
	Quantity  int      `json:"quantity" validate:"gt=0"`
	UnitPrice *float64 `json:"unit_price" validate:"omitempty,gte=0"` // defaults to catalog price
}

type InvoiceInput struct {
	ClientID    string             `json:"client_id" validate:"required"`
	InvoiceDate string             `json:"invoice_date" validate:"required"`
	TermDays    int                `json:"term_days" validate:"required"`
	Items       []InvoiceItemInput `json:"items" validate:"required,min=1,max=5,dive"`
}

// buildInvoice resolves the input against the client and product catalog,
// snapshots the client, and derives the monetary fields through the engine.
func buildInvoice(db *gorm.DB, input *InvoiceInput, now time.Time) (*models.Invoice, error) {
	invoiceDate, err := time.Parse(dateLayout, input.InvoiceDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invoice_date must be YYYY-MM-DD", fiscal.ErrInvalidInvoiceInput)
	}
	dueDate, err := fiscal.DueDate(invoiceDate, input.TermDays)
	if err != nil {
		return nil, err
	}

	var client models.Client
	if err := db.Where("id = ?", input.ClientID).First(&client).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "client not found")
	}

	sameState := client.State == businessState()

	items := make([]fiscal.LineItem, 0, len(input.Items))
	lines := make([]models.LineItem, 0, len(input.Items))
	for _, in := range input.Items {
		var product models.Product
		if err := db.Where("id = ?", in.ProductID).First(&product).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("product %s not found", in.ProductID))
		}
		unitPrice := product.UnitPrice
		if in.UnitPrice != nil {
			unitPrice = *in.UnitPrice
		}
		items = append(items, fiscal.LineItem{
			ProductID: product.Id,
			Name:      product.Name,
			HSNCode:   product.HSNCode,
			Quantity:  in.Quantity,
			UnitPrice: unitPrice,
		})
		lines = append(lines, models.LineItem{
			ProductID: product.Id,
			Name:      product.Name,
			HSNCode:   product.HSNCode,
			Quantity:  in.Quantity,
			UnitPrice: unitPrice,
			LineTotal: float64(in.Quantity) * unitPrice,
		})
	}

	derived, err := fiscal.Compute(items, ratesFromEnv(), sameState, fiscal.PaymentFacts{}, dueDate, now)
	if err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		ClientID:    client.Id,
		ClientName:  client.CompanyName,
		ClientEmail: client.Email,
		ClientState: client.State,
		ClientGSTIN: client.GSTIN,
		ClientAddr:  fmt.Sprintf("%s, %s %s", client.Address, client.City, client.Zip),
		SameState:   sameState,
		Items:       lines,
		InvoiceDate: invoiceDate,
		TermDays:    input.TermDays,
		DueDate:     dueDate,
		Subtotal:    derived.Subtotal,
		CGST:        derived.CGST,
		SGST:        derived.SGST,
		IGST:        derived.IGST,
		TotalAmount: derived.Total,
		TDSAmount:   derived.TDS,
		Draft:       true,
	}
	return invoice, nil
}

// CreateInvoice records a new draft. Numbers are assigned on publish.
func CreateInvoice(c *fiber.Ctx) error {
	var input InvoiceInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	invoice, err := buildInvoice(db, &input, time.Now())
	if err != nil {
		return err
	}
	if err := db.Create(invoice).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "Could not create invoice", "error": err.Error()})
	}

	invoice.DeriveStatus(time.Now())
	return c.Status(201).JSON(invoice)
}

func GetInvoices(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	q := db.Preload("Items").Order("invoice_date DESC, id DESC")
	if clientID := c.Query("client_id"); clientID != "" {
		q = q.Where("client_id = ?", clientID)
	}

	var invoices []models.Invoice
	if err := q.Find(&invoices).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list invoices")
	}

	now := time.Now()
	for i := range invoices {
		invoices[i].DeriveStatus(now)
	}

	// Status is derived, so filtering happens after the scan.
	if want := c.Query("status"); want != "" {
		filtered := invoices[:0]
		for _, inv := range invoices {
			if string(inv.Status) == want {
				filtered = append(filtered, inv)
			}
		}
		invoices = filtered
	}

	return c.JSON(fiber.Map{
		"invoices": invoices,
		"message":  "success",
	})
}

func GetInvoice(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var invoice models.Invoice
	if err := db.Preload("Items").First(&invoice, c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "invoice not found")
	}
	invoice.DeriveStatus(time.Now())
	return c.JSON(invoice)
}

// UpdateInvoice replaces a draft's contents. Published invoices only change
// through payments and are rejected here.
func UpdateInvoice(c *fiber.Ctx) error {
	var input InvoiceInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var existing models.Invoice
	if err := db.First(&existing, c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "invoice not found")
	}
	if existing.Published {
		return fiber.NewError(fiber.StatusConflict, "published invoices cannot be edited")
	}

	rebuilt, err := buildInvoice(db, &input, time.Now())
	if err != nil {
		return err
	}
	rebuilt.ID = existing.ID
	rebuilt.CreatedAt = existing.CreatedAt

	if err := db.Where("invoice_id = ?", existing.ID).Delete(&models.LineItem{}).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not replace line items")
	}
	if err := db.Session(&gorm.Session{FullSaveAssociations: true}).Save(rebuilt).Error; err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not update invoice",
			"error":   err.Error(),
		})
	}

	rebuilt.DeriveStatus(time.Now())
	return c.JSON(rebuilt)
}

// PublishInvoice assigns the next "INV NNN/YYYY-YY" number for the
// invoice's own fiscal year and leaves the draft state for good.
func PublishInvoice(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var invoice models.Invoice
	if err := db.Preload("Items").First(&invoice, c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "invoice not found")
	}
	if invoice.Published {
		invoice.DeriveStatus(time.Now())
		return c.JSON(invoice) // already published; publishing is idempotent
	}

	marker := &database.MarkerStore{DB: db}
	seq, err := marker.NextSequence()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not assign invoice number")
	}

	now := time.Now()
	invoice.InvoiceNumber = fiscal.InvoiceNumber(seq, fiscal.Classify(invoice.InvoiceDate))
	invoice.Draft = false
	invoice.Published = true
	invoice.PublishedAt = &now

	if err := db.Model(&invoice).Updates(map[string]any{
		"invoice_number": invoice.InvoiceNumber,
		"draft":          false,
		"published":      true,
		"published_at":   &now,
	}).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not publish invoice")
	}

	invoice.DeriveStatus(now)
	return c.JSON(invoice)
}
