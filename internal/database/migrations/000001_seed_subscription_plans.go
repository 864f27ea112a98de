package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func seedSubscriptionPlansMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_seed_subscription_plans",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				INSERT INTO subscription_plans (id, name, tier, description, monthly_amount, currency, active, created_at, updated_at)
				VALUES
					(gen_random_uuid(), 'Starter', 'starter', 'Property search and listing tools', 29.00, 'USD', true, NOW(), NOW()),
					(gen_random_uuid(), 'Pro', 'pro', 'Everything in Starter plus the cash-buyer directory', 79.00, 'USD', true, NOW(), NOW()),
					(gen_random_uuid(), 'Enterprise', 'enterprise', 'Full platform access with admin analytics', 199.00, 'USD', true, NOW(), NOW())
				ON CONFLICT DO NOTHING
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DELETE FROM subscription_plans WHERE tier IN ('starter', 'pro', 'enterprise')").Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, seedSubscriptionPlansMigration())
}
