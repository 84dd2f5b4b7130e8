package db

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"loanease/internal/config"
	"loanease/internal/infrastructure/logger"
)

// Open connects to the database selected by cfg.DBDriver.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dial = sqlite.Open(cfg.SQLitePath)
	default:
		dial = mysql.Open(cfg.MySQLDSN())
	}
	gdb, err := OpenGormWithDialector(dial, logger.NewGormLogger(log, logger.GormLevel(cfg.LogLevel)))
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver == "sqlite" {
		// sqlite serialises writers; a single connection avoids SQLITE_BUSY
		sqlDB, _ := gdb.DB()
		sqlDB.SetMaxOpenConns(1)
	}
	log.Info("gorm: connected", zap.String("driver", cfg.DBDriver))
	return gdb, nil
}

// OpenGormWithDialector opens, tunes the pool and pings.
func OpenGormWithDialector(dial gorm.Dialector, lg ...gormlogger.Interface) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn), TranslateError: true}
	if len(lg) > 0 && lg[0] != nil {
		cfg.Logger = lg[0]
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}
