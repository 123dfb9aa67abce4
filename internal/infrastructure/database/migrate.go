package database

import (
	"fmt"

	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := createExtensions(db); err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return err
	}

	// Enum types must exist before auto-migrate references them
	if err := createCustomTypes(db); err != nil {
		logger.Error("Failed to create custom types", zap.Error(err))
		return err
	}

	err := db.AutoMigrate(
		&model.Wallet{},
		&model.MerchantAccount{},
		&model.APIKey{},
		&model.Order{},
		&model.Payment{},
		&model.Transaction{},
		&model.Settlement{},
		&model.WebhookEndpoint{},
		&model.WebhookEvent{},
		&model.WebhookDelivery{},
		&model.AuditLog{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}
	logger.Info("GORM auto-migrations completed successfully")

	if err := createConstraints(db); err != nil {
		logger.Error("Failed to create constraints", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	if err := createAuditTriggers(db, logger); err != nil {
		logger.Error("Failed to create audit triggers", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createExtensions creates required PostgreSQL extensions
func createExtensions(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error
}

// createCustomTypes creates the enum types used by status columns
func createCustomTypes(db *gorm.DB) error {
	types := []struct {
		name   string
		values string
	}{
		{"order_status", `'created', 'paid', 'failed'`},
		{"transaction_type", `'transfer', 'payment', 'refund', 'settlement'`},
		{"webhook_status", `'pending', 'processing', 'success', 'failed'`},
	}

	for _, t := range types {
		var exists bool
		if err := db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_type WHERE typname = ?)`, t.name).Scan(&exists).Error; err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := db.Exec(fmt.Sprintf(`CREATE TYPE %s AS ENUM (%s)`, t.name, t.values)).Error; err != nil {
			return err
		}
	}
	return nil
}

// createConstraints adds the CHECK constraints that keep balances non-negative
func createConstraints(db *gorm.DB) error {
	checks := []struct {
		table string
		name  string
		expr  string
	}{
		{"wallets", "chk_wallets_balance_non_negative", "balance >= 0"},
		{"merchant_accounts", "chk_merchant_pending_non_negative", "pending_balance >= 0"},
		{"merchant_accounts", "chk_merchant_available_non_negative", "available_balance >= 0"},
		{"transactions", "chk_transactions_amount_positive", "amount > 0"},
		{"orders", "chk_orders_amount_positive", "amount > 0"},
		{"settlements", "chk_settlements_amount_positive", "amount > 0"},
	}

	for _, c := range checks {
		sql := fmt.Sprintf(`DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
        ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);
    END IF;
END $$;`, c.name, c.table, c.name, c.expr)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to add constraint %s: %w", c.name, err)
		}
	}
	return nil
}

// createCustomIndexes creates indexes that GORM doesn't handle automatically
func createCustomIndexes(db *gorm.DB) error {
	// Idempotency keys are scoped to the sender
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uniq_transactions_sender_idempotency ON transactions (sender_id, idempotency_key) WHERE idempotency_key IS NOT NULL`).Error; err != nil {
		return err
	}

	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_merchant_accounts_pending ON merchant_accounts (id) WHERE pending_balance > 0`).Error; err != nil {
		return err
	}

	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_webhook_events_unfinished ON webhook_events (created_at) WHERE status IN ('pending', 'processing')`).Error; err != nil {
		return err
	}

	return nil
}

// createAuditTriggers records every change to balance-bearing and order rows
func createAuditTriggers(db *gorm.DB, logger *zap.Logger) error {
	auditFunctionSQL := `
CREATE OR REPLACE FUNCTION audit_table_changes() RETURNS TRIGGER AS $$
DECLARE
    v_actor_id UUID;
    v_record_key TEXT;
BEGIN
    BEGIN
        v_actor_id := (current_setting('app.current_actor_id', true))::UUID;
    EXCEPTION WHEN OTHERS THEN
        v_actor_id := NULL;
    END;

    IF TG_OP = 'DELETE' THEN
        v_record_key := to_jsonb(OLD) ->> TG_ARGV[0];
        INSERT INTO audit_log (actor_id, action, table_name, record_key, old_values, created_at)
        VALUES (v_actor_id, 'DELETE', TG_TABLE_NAME, v_record_key, to_jsonb(OLD), now());
        RETURN OLD;
    END IF;

    v_record_key := to_jsonb(NEW) ->> TG_ARGV[0];
    IF TG_OP = 'UPDATE' THEN
        INSERT INTO audit_log (actor_id, action, table_name, record_key, old_values, new_values, created_at)
        VALUES (v_actor_id, 'UPDATE', TG_TABLE_NAME, v_record_key, to_jsonb(OLD), to_jsonb(NEW), now());
    ELSE
        INSERT INTO audit_log (actor_id, action, table_name, record_key, new_values, created_at)
        VALUES (v_actor_id, 'INSERT', TG_TABLE_NAME, v_record_key, to_jsonb(NEW), now());
    END IF;
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;`

	if err := db.Exec(auditFunctionSQL).Error; err != nil {
		logger.Error("Failed to create audit trigger function", zap.Error(err))
		return err
	}

	// table -> column used as the audit record key
	tables := []struct {
		name string
		key  string
	}{
		{"wallets", "user_id"},
		{"merchant_accounts", "id"},
		{"orders", "order_id"},
		{"settlements", "settlement_id"},
		{"webhook_endpoints", "id"},
	}
	for _, table := range tables {
		dropSQL := fmt.Sprintf(`DROP TRIGGER IF EXISTS audit_%s ON %s;`, table.name, table.name)
		if err := db.Exec(dropSQL).Error; err != nil {
			logger.Warn("Failed to drop existing trigger", zap.String("table", table.name), zap.Error(err))
		}

		triggerSQL := fmt.Sprintf(`
CREATE TRIGGER audit_%s
    AFTER INSERT OR UPDATE OR DELETE ON %s
    FOR EACH ROW EXECUTE FUNCTION audit_table_changes('%s');`, table.name, table.name, table.key)
		if err := db.Exec(triggerSQL).Error; err != nil {
			logger.Error("Failed to create audit trigger", zap.String("table", table.name), zap.Error(err))
			return err
		}
		logger.Debug("Created audit trigger", zap.String("table", table.name))
	}

	return nil
}
