package controllers

import (
	"fmt"
	"time"

	"esa-billing-backend/database"
	"esa-billing-backend/fiscal"
	"esa-billing-backend/middlewares"
	"esa-billing-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PaymentInput struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Method        string  `json:"method" validate:"required"`
	TransactionID string  `json:"transaction_id"` // generated when omitted
	Note          string  `json:"note"`
	PaidAt        string  `json:"paid_at" validate:"required"`
}

// CreatePayment records money received against a published invoice. The
// engine rejects anything that would exceed net payable; TDS withheld is
// recorded on the payment that settles the invoice.
func CreatePayment(c *fiber.Ctx) error {
	var input PaymentInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var invoice models.Invoice
	if err := db.First(&invoice, c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "invoice not found")
	}
	if !invoice.Published {
		return fiber.NewError(fiber.StatusConflict, "cannot record a payment against a draft invoice")
	}

	paidAt, err := time.Parse(dateLayout, input.PaidAt)
	if err != nil {
		return fmt.Errorf("%w: paid_at must be YYYY-MM-DD", fiscal.ErrInvalidInvoiceInput)
	}
	if paidAt.Before(invoice.InvoiceDate) {
		return fmt.Errorf("%w: payment date precedes invoice date", fiscal.ErrInvalidInvoiceInput)
	}

	if err := fiscal.CheckPayment(invoice.PaidTotal, input.Amount, invoice.NetPayable()); err != nil {
		return err
	}

	payment := models.Payment{
		InvoiceID:     invoice.ID,
		Amount:        input.Amount,
		Method:        input.Method,
		TransactionID: input.TransactionID,
		Note:          input.Note,
		PaidAt:        paidAt,
	}
	if payment.TransactionID == "" {
		payment.TransactionID = uuid.NewString()
	}
	settled := invoice.PaidTotal+input.Amount >= invoice.NetPayable()-0.005
	if settled {
		payment.TDSWithheld = invoice.TDSAmount
	}

	if err := db.Create(&payment).Error; err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not record payment",
			"error":   err.Error(),
		})
	}

	// Roll up the paid total on the invoice row.
	newPaid := invoice.PaidTotal + input.Amount
	if err := db.Model(&invoice).Update("paid_total", newPaid).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not update invoice rollup")
	}

	invoice.PaidTotal = newPaid
	invoice.DeriveStatus(time.Now())
	return c.Status(201).JSON(fiber.Map{
		"payment": payment,
		"invoice": fiber.Map{
			"id":         invoice.ID,
			"paid_total": invoice.PaidTotal,
			"status":     invoice.Status,
		},
	})
}

func ListPayments(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var invoice models.Invoice
	if err := db.First(&invoice, c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "invoice not found")
	}

	var payments []models.Payment
	if err := db.Where("invoice_id = ?", invoice.ID).
		Order("paid_at, id").Find(&payments).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list payments")
	}

	return c.JSON(fiber.Map{
		"payments": payments,
		"message":  "success",
	})
}
