package repo

import (
	"InvoiceRoom/internal/model"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// InitDB открывает БД выбранного драйвера и применяет миграции.
// driver: sqlite (по умолчанию, modernc), postgres, mysql.
func InitDB(driver, dsn string) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch driver {
	case "postgres", "postgresql":
		dial = postgres.Open(dsn)
	case "mysql":
		dial = mysql.Open(dsn)
	default:
		dial = gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	}

	db, err := gorm.Open(dial, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if isSQLite(db) {
		// SQLite не умеет блокировать строки: переходы сериализуются
		// через единственное соединение пула.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Migrate создаёт/обновляет схему для всех моделей.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Room{},
		&model.Seller{},
		&model.Buyer{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.NegotiationHistory{},
	)
}

func isSQLite(db *gorm.DB) bool {
	return db.Dialector.Name() == "sqlite"
}
