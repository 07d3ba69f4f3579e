package database

import (
	"fmt"

	"esa-billing-backend/models"

	"gorm.io/gorm"
)

// Migrate applies (idempotent) schema migrations:
// - AutoMigrate (tables/columns)
// - Money column types (NUMERIC(12,2))
// - Indexes (payments, line_items, invoice numbers)
// - Foreign key: line_items.product_id → products.id
// - Basic CHECK constraints
func Migrate() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		// --- AutoMigrate tables/columns/index tags (non-destructive) ---
		if err := tx.AutoMigrate(
			&models.User{},
			&models.Client{},
			&models.Product{},
			&models.Invoice{},
			&models.LineItem{},
			&models.Payment{},
			&models.FiscalArchive{},
			&models.FiscalMarker{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		// --- Enforce money columns as NUMERIC(12,2) (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE products   ALTER COLUMN unit_price   TYPE numeric(12,2)`,
			`ALTER TABLE invoices   ALTER COLUMN subtotal     TYPE numeric(12,2)`,
			`ALTER TABLE invoices   ALTER COLUMN cgst         TYPE numeric(12,2)`,
			`ALTER TABLE invoices   ALTER COLUMN sgst         TYPE numeric(12,2)`,
			`ALTER TABLE invoices   ALTER COLUMN igst         TYPE numeric(12,2)`,
			`ALTER TABLE invoices   ALTER COLUMN total_amount TYPE numeric(12,2)`,
			`ALTER TABLE invoices   ALTER COLUMN tds_amount   TYPE numeric(12,2)`,
			`ALTER TABLE invoices   ALTER COLUMN paid_total   TYPE numeric(12,2)`,
			`ALTER TABLE line_items ALTER COLUMN unit_price   TYPE numeric(12,2)`,
			`ALTER TABLE line_items ALTER COLUMN line_total   TYPE numeric(12,2)`,
			`ALTER TABLE payments   ALTER COLUMN amount       TYPE numeric(12,2)`,
			`ALTER TABLE payments   ALTER COLUMN tds_withheld TYPE numeric(12,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Composite / helpful indexes (idempotent) ---
		indexes := []string{
			// Invoice numbers are assigned on publish; drafts share the empty string.
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_number_published ON invoices (invoice_number) WHERE invoice_number <> ''`,
			`CREATE INDEX IF NOT EXISTS idx_payments_invoice_paid_at ON payments (invoice_id, paid_at)`,
			`CREATE INDEX IF NOT EXISTS idx_line_items_invoice ON line_items (invoice_id)`,
			`CREATE INDEX IF NOT EXISTS idx_line_items_product ON line_items (product_id)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_keys_key ON idempotency_keys (key)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Foreign key: line_items.product_id -> products.id (RESTRICT/RESTRICT) ---
		fk := `
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1
		FROM pg_constraint
		WHERE conrelid = 'line_items'::regclass
		  AND conname  = 'fk_line_items_product'
	) THEN
		ALTER TABLE line_items
		ADD CONSTRAINT fk_line_items_product
		FOREIGN KEY (product_id)
		REFERENCES products(id)
		ON UPDATE RESTRICT
		ON DELETE RESTRICT;
	END IF;
END $$;`
		if err := tx.Exec(fk).Error; err != nil {
			return fmt.Errorf("foreign key migration failed: %w", err)
		}

		// --- Basic CHECK constraints (idempotent) ---
		checks := []string{
			// Non-negative product price
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'products'::regclass
					  AND conname  = 'chk_products_unit_price_nonneg'
				) THEN
					ALTER TABLE products
					ADD CONSTRAINT chk_products_unit_price_nonneg
					CHECK (unit_price >= 0);
				END IF;
			END $$;`,
			// Payments.amount > 0
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'payments'::regclass
					  AND conname  = 'chk_payments_amount_positive'
				) THEN
					ALTER TABLE payments
					ADD CONSTRAINT chk_payments_amount_positive
					CHECK (amount > 0);
				END IF;
			END $$;`,
			// Line items: quantity > 0
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'line_items'::regclass
					  AND conname  = 'chk_line_items_quantity_positive'
				) THEN
					ALTER TABLE line_items
					ADD CONSTRAINT chk_line_items_quantity_positive
					CHECK (quantity > 0);
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		return nil
	})
}
