package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/gobag/gobag-backend/internal/models"
)

func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto migrate the schema
	err = db.AutoMigrate(
		&models.User{},
		&models.Trip{},
		&models.Booking{},
		&models.Package{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
