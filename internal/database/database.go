package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dealbase/backend/internal/config"
	"github.com/dealbase/backend/internal/models"
)

// InitDB initializes the database connection with configuration
func InitDB(dbConfig config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Needed so unique-index violations surface as gorm.ErrDuplicatedKey.
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(dbConfig.URL), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdle)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Users
		&models.User{},

		// Subscriptions
		&models.SubscriptionPlan{},
		&models.Subscription{},

		// Affiliate program
		&models.AffiliateProfile{},
		&models.Referral{},
		&models.Commission{},
		&models.Payout{},

		// Marketplace
		&models.Property{},
		&models.PropertyView{},
		&models.CashBuyer{},
		&models.BuyerIntro{},
	)
}
