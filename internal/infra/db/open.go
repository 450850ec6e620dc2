// Package db picks and opens the storage backend named in config.
package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bryanwahyu/policylens/internal/application"
	"github.com/bryanwahyu/policylens/internal/config"
	"github.com/bryanwahyu/policylens/internal/infra/db/memory"
	"github.com/bryanwahyu/policylens/internal/infra/db/mysql"
	"github.com/bryanwahyu/policylens/internal/infra/db/postgres"
	"github.com/bryanwahyu/policylens/internal/infra/db/relational"
	"github.com/bryanwahyu/policylens/internal/infra/db/sqlite"
)

// Store is a storage backend plus the lifecycle hooks main needs.
type Store interface {
	application.Storage
	Check(ctx context.Context) error
	Close() error
}

// GormConfig turns driver-specific unique violations into gorm.ErrDuplicatedKey.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// Open builds the backend for cfg.Database.Driver. Relational backends are migrated when
// autoMigrate is on.
func Open(ctx context.Context, cfg *config.Config, clock application.Clock) (Store, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "", "memory":
		log.Printf("storage driver=memory (data is lost on restart)")
		return memory.New(clock), nil
	case "postgres":
		sqlDB, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		dialector = postgres.Dialector(sqlDB)
	case "mysql":
		sqlDB, err := mysql.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, fmt.Errorf("connect mysql: %w", err)
		}
		dialector = mysql.Dialector(sqlDB)
	case "sqlite":
		dialector = sqlite.Dialector(cfg.Database.URL)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	gdb, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Database.Driver, err)
	}
	if cfg.Database.Driver == "sqlite" {
		// one writer at a time; sqlite locks the whole file anyway
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	store := relational.New(gdb, clock)
	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	log.Printf("storage driver=%s auto_migrate=%v", cfg.Database.Driver, cfg.Database.AutoMigrate)
	return store, nil
}
