package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"esa-billing-backend/fiscal"
	"esa-billing-backend/models"
	"esa-billing-backend/utils"
)

// SeedDemo loads a demo data set when the tables are empty: a handful of
// clients and products plus invoices spread over the current fiscal year,
// some paid, some partially paid, some left to go overdue. Derivation goes
// through the same fiscal.Compute path the API uses.
func SeedDemo(now time.Time) error {
	var count int64
	if err := DB.Model(&models.Invoice{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	rates := fiscal.TaxRates{
		GSTRate: utils.EnvFloat("GST_RATE", 0.18),
		TDSRate: utils.EnvFloat("TDS_RATE", 0.20),
	}
	homeState := utils.EnvStr("BUSINESS_STATE", "Karnataka")

	clients := []models.Client{
		{CompanyName: "Mehta Textiles", ContactName: "Priya Mehta", Email: "accounts@mehtatextiles.in",
			Address: "14 Commercial St", City: "Bengaluru", State: homeState, Zip: "560001", GSTIN: "29AAACM1234F1Z5", Active: true},
		{CompanyName: "Sharma Traders", ContactName: "Rohit Sharma", Email: "billing@sharmatraders.in",
			Address: "8 MG Road", City: "Pune", State: "Maharashtra", Zip: "411001", GSTIN: "27AABCS5678K1Z3", Active: true},
		{CompanyName: "Nair Enterprises", ContactName: "Anita Nair", Email: "finance@nairenterprises.in",
			Address: "3 Marine Dr", City: "Kochi", State: "Kerala", Zip: "682001", GSTIN: "32AADCN9012L1Z8", Active: true},
	}
	products := []models.Product{
		{Name: "Consulting Hours", Description: "Professional services", HSNCode: "998311", UnitPrice: 1500, Active: true},
		{Name: "Cloud Hosting", Description: "Monthly hosting plan", HSNCode: "998315", UnitPrice: 2000, Active: true},
		{Name: "Annual Support", Description: "Support retainer", HSNCode: "998313", UnitPrice: 12000, Active: true},
		{Name: "Custom Report", Description: "One-off reporting build", HSNCode: "998312", UnitPrice: 4500, Active: true},
	}
	for i := range clients {
		if err := DB.Create(&clients[i]).Error; err != nil {
			return err
		}
	}
	for i := range products {
		if err := DB.Create(&products[i]).Error; err != nil {
			return err
		}
	}

	fy := fiscal.Current(now)
	marker := &MarkerStore{DB: DB}

	// A spread of invoices across the year so the dashboard has texture:
	// index picks the client, months walk backwards from now.
	type plan struct {
		client    int
		product   int
		quantity  int
		monthsAgo int
		termDays  int
		payRatio  float64 // share of net payable already received
	}
	plans := []plan{
		{0, 0, 4, 4, 30, 1.0},
		{1, 1, 2, 3, 15, 0.5},
		{2, 2, 1, 2, 45, 0.0},
		{0, 3, 2, 1, 30, 1.0},
		{1, 0, 6, 0, 30, 0.0},
	}

	for _, p := range plans {
		issued := now.AddDate(0, -p.monthsAgo, 0)
		if issued.Before(fy.Start) {
			issued = fy.Start.AddDate(0, 0, 7)
		}
		client := clients[p.client]
		product := products[p.product]

		items := []fiscal.LineItem{{
			ProductID: product.Id,
			Name:      product.Name,
			HSNCode:   product.HSNCode,
			Quantity:  p.quantity,
			UnitPrice: product.UnitPrice,
		}}
		due, err := fiscal.DueDate(issued, p.termDays)
		if err != nil {
			return err
		}
		derived, err := fiscal.Compute(items, rates, client.State == homeState, fiscal.PaymentFacts{}, due, now)
		if err != nil {
			return err
		}
		seq, err := marker.NextSequence()
		if err != nil {
			return err
		}

		publishedAt := issued
		invoice := models.Invoice{
			InvoiceNumber: fiscal.InvoiceNumber(seq, fiscal.Classify(issued)),
			ClientID:      client.Id,
			ClientName:    client.CompanyName,
			ClientEmail:   client.Email,
			ClientState:   client.State,
			ClientGSTIN:   client.GSTIN,
			ClientAddr:    fmt.Sprintf("%s, %s %s", client.Address, client.City, client.Zip),
			SameState:     client.State == homeState,
			InvoiceDate:   issued,
			TermDays:      p.termDays,
			DueDate:       due,
			Subtotal:      derived.Subtotal,
			CGST:          derived.CGST,
			SGST:          derived.SGST,
			IGST:          derived.IGST,
			TotalAmount:   derived.Total,
			TDSAmount:     derived.TDS,
			Published:     true,
			PublishedAt:   &publishedAt,
		}
		invoice.Items = []models.LineItem{{
			ProductID: product.Id,
			Name:      product.Name,
			HSNCode:   product.HSNCode,
			Quantity:  p.quantity,
			UnitPrice: product.UnitPrice,
			LineTotal: float64(p.quantity) * product.UnitPrice,
		}}
		if err := DB.Create(&invoice).Error; err != nil {
			return err
		}

		if p.payRatio <= 0 {
			continue
		}
		amount := fiscal.RoundUnit(derived.NetPayable * p.payRatio)
		settles := amount >= derived.NetPayable
		payment := models.Payment{
			InvoiceID:     invoice.ID,
			Amount:        amount,
			Method:        "Bank Transfer",
			TransactionID: uuid.NewString(),
			PaidAt:        issued.AddDate(0, 0, 10),
		}
		if settles {
			payment.TDSWithheld = derived.TDS
		}
		if err := DB.Create(&payment).Error; err != nil {
			return err
		}
		if err := DB.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
			Update("paid_total", amount).Error; err != nil {
			return err
		}
	}

	return nil
}
