package tokenstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shopnotify/backend/internal/domain/device"
	"github.com/shopnotify/backend/internal/infrastructure/config"
	"github.com/shopnotify/backend/internal/infrastructure/logger"
	"github.com/shopnotify/backend/internal/infrastructure/telemetry"
)

const insertBatchSize = 100

// tokenRecord is one row of device_tokens. Position keeps registration order.
type tokenRecord struct {
	ID            string `gorm:"primaryKey;size:36"`
	Position      int    `gorm:"not null;index"`
	ExpoPushToken string `gorm:"column:expo_push_token;size:255"`
	FCMToken      string `gorm:"column:fcm_token;size:512"`
	CreatedAt     time.Time
}

func (tokenRecord) TableName() string { return "device_tokens" }

// DatabaseStore keeps the registry in a SQL table through gorm
type DatabaseStore struct {
	db *gorm.DB
}

// OpenDatabase connects with the configured driver and registers tracing
// when enabled
func OpenDatabase(cfg config.DatabaseStoreConfig, zapLogger *zap.Logger, logLevel string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormLogger(zapLogger, logger.GormLevel(logLevel), 200*time.Millisecond),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.TraceEnabled {
		if err := telemetry.InstrumentGorm(db, cfg.Driver); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to register database tracing: %w", err)
		}
	}
	return db, nil
}

// NewDatabaseStore wraps an open connection. Call Migrate before first use.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Migrate creates or updates the device_tokens table
func (s *DatabaseStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&tokenRecord{}); err != nil {
		return fmt.Errorf("migrate device_tokens: %w", err)
	}
	return nil
}

// Load implements device.Store
func (s *DatabaseStore) Load(ctx context.Context) ([]device.Token, error) {
	var records []tokenRecord
	if err := s.db.WithContext(ctx).Order("position").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load device_tokens: %w", err)
	}

	tokens := make([]device.Token, 0, len(records))
	for _, r := range records {
		tokens = append(tokens, device.Token{ExpoPushToken: r.ExpoPushToken, FCMToken: r.FCMToken})
	}
	return tokens, nil
}

// Save replaces the table contents in one transaction
func (s *DatabaseStore) Save(ctx context.Context, tokens []device.Token) error {
	records := make([]tokenRecord, 0, len(tokens))
	for i, t := range tokens {
		records = append(records, tokenRecord{
			ID:            uuid.NewString(),
			Position:      i,
			ExpoPushToken: t.ExpoPushToken,
			FCMToken:      t.FCMToken,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&tokenRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, insertBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("save device_tokens: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool
func (s *DatabaseStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ device.Store = (*DatabaseStore)(nil)
