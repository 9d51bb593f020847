package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ovestreet/storefront-backend/internal/platform/envutil"
	"github.com/ovestreet/storefront-backend/internal/platform/logger"
	"github.com/ovestreet/storefront-backend/internal/types"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := envutil.Str("POSTGRES_HOST", "localhost")
	postgresPort := envutil.Str("POSTGRES_PORT", "5432")
	postgresUser := envutil.Str("POSTGRES_USER", "postgres")
	postgresPassword := envutil.Str("POSTGRES_PASSWORD", "")
	postgresName := envutil.Str("POSTGRES_NAME", "storefront")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Product{},
		&types.Order{},
		&types.OrderLine{},
		&types.UserAggregate{},
		&types.WishlistItem{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	// Stock can never be committed negative; the constraint backstops the
	// transactional check in the order coordinator.
	if err := s.db.Exec(`
		ALTER TABLE "product"
		DROP CONSTRAINT IF EXISTS "chk_product_stock_nonnegative"
	`).Error; err != nil {
		return fmt.Errorf("Failed to reset chk_product_stock_nonnegative: %w", err)
	}
	if err := s.db.Exec(`
		ALTER TABLE "product"
		ADD CONSTRAINT "chk_product_stock_nonnegative"
		CHECK ("stock" >= 0)
	`).Error; err != nil {
		return fmt.Errorf("Failed to add chk_product_stock_nonnegative: %w", err)
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	if err := s.db.Exec(`
		ALTER TABLE "order_line"
		DROP CONSTRAINT IF EXISTS "fk_order_line_order_id"
	`).Error; err != nil {
		return fmt.Errorf("Failed to reset fk_order_line_order_id: %w", err)
	}
	if err := s.db.Exec(`
		ALTER TABLE "order_line"
		ADD CONSTRAINT "fk_order_line_order_id"
		FOREIGN KEY ("order_id")
		REFERENCES "order"("id")
		ON DELETE CASCADE
	`).Error; err != nil {
		return fmt.Errorf("Failed to add fk_order_line_order_id: %w", err)
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
