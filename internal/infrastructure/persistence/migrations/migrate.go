// Package migrations keeps the database schema in step with the GORM models
package migrations

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	gormModels "github.com/healthylife/server/internal/infrastructure/persistence/gorm"
)

// Migrator handles database migrations
type Migrator struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New creates a new migrator instance
func New(db *gorm.DB, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, logger: logger.Named("migrations")}
}

// Up creates or alters tables for every model
func (m *Migrator) Up() error {
	start := time.Now()
	m.logger.Info("Running database migrations")

	if err := m.db.AutoMigrate(gormModels.AllModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.logger.Info("Migrations completed successfully",
		zap.Int("models", len(gormModels.AllModels())),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// Status reports which model tables exist
func (m *Migrator) Status() map[string]bool {
	out := make(map[string]bool)
	for _, model := range gormModels.AllModels() {
		stmt := &gorm.Statement{DB: m.db}
		if err := stmt.Parse(model); err != nil {
			continue
		}
		out[stmt.Schema.Table] = m.db.Migrator().HasTable(model)
	}
	return out
}
