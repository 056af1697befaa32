package database

import (
	"fmt"

	"garage-backend/models"

	"gorm.io/gorm"
)

// Migrate applies (idempotent) schema migrations on the remote database:
// - AutoMigrate (tables/columns)
// - Money column types (NUMERIC(12,2))
// - Indexes (payments, invoice items, display ids)
// - Basic CHECK constraints
func Migrate() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		// --- AutoMigrate tables/columns/index tags (non-destructive) ---
		if err := tx.AutoMigrate(
			&models.User{},
			&models.Company{},
			&models.Client{},
			&models.Vehicle{},
			&models.Supplier{},
			&models.Part{},
			&models.Employee{},
			&models.SalaryPayment{},
			&models.Invoice{},
			&models.InvoiceItem{},
			&models.Payment{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		// --- Enforce money columns as NUMERIC(12,2) (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE parts           ALTER COLUMN unit_price     TYPE numeric(12,2)`,
			`ALTER TABLE parts           ALTER COLUMN unit_cost      TYPE numeric(12,2)`,
			`ALTER TABLE invoices        ALTER COLUMN subtotal       TYPE numeric(12,2)`,
			`ALTER TABLE invoices        ALTER COLUMN discount_value TYPE numeric(12,2)`,
			`ALTER TABLE invoices        ALTER COLUMN total          TYPE numeric(12,2)`,
			`ALTER TABLE invoice_items   ALTER COLUMN unit_price     TYPE numeric(12,2)`,
			`ALTER TABLE invoice_items   ALTER COLUMN unit_cost      TYPE numeric(12,2)`,
			`ALTER TABLE payments        ALTER COLUMN amount         TYPE numeric(12,2)`,
			`ALTER TABLE employees       ALTER COLUMN base_salary    TYPE numeric(12,2)`,
			`ALTER TABLE salary_payments ALTER COLUMN amount         TYPE numeric(12,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Composite / helpful indexes (idempotent) ---
		indexes := []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_company_display ON invoices (company_id, display_id)`,
			`CREATE INDEX IF NOT EXISTS idx_payments_invoice_paid_at ON payments (invoice_id, paid_at)`,
			`CREATE INDEX IF NOT EXISTS idx_invoice_items_invoice ON invoice_items (invoice_id)`,
			`CREATE INDEX IF NOT EXISTS idx_vehicles_company_plate ON vehicles (company_id, plate)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_keys_key ON idempotency_keys (key)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Basic CHECK constraints (idempotent) ---
		checks := []string{
			// Non-negative part price
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'parts'::regclass
					  AND conname  = 'chk_parts_unit_price_nonneg'
				) THEN
					ALTER TABLE parts
					ADD CONSTRAINT chk_parts_unit_price_nonneg
					CHECK (unit_price >= 0);
				END IF;
			END $$;`,
			// Payments.amount >= 0
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'payments'::regclass
					  AND conname  = 'chk_payments_amount_nonneg'
				) THEN
					ALTER TABLE payments
					ADD CONSTRAINT chk_payments_amount_nonneg
					CHECK (amount >= 0);
				END IF;
			END $$;`,
			// Invoice items: quantity >= 0
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'invoice_items'::regclass
					  AND conname  = 'chk_invoice_items_quantity_nonneg'
				) THEN
					ALTER TABLE invoice_items
					ADD CONSTRAINT chk_invoice_items_quantity_nonneg
					CHECK (quantity >= 0);
				END IF;
			END $$;`,
			// Numbering counter stays positive
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'companies'::regclass
					  AND conname  = 'chk_companies_next_number_positive'
				) THEN
					ALTER TABLE companies
					ADD CONSTRAINT chk_companies_next_number_positive
					CHECK (invoice_next_number >= 1);
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
