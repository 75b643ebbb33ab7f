package store

import (
	"errors"

	"github.com/venkat-sld/shoplive/internal/model"
	"github.com/venkat-sld/shoplive/pkg/database"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no row matches, including rows owned by someone else
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientStock is returned when a conditional stock decrement matches no row
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrDuplicateEmail is returned when a merchant email is already registered
	ErrDuplicateEmail = errors.New("email already exists")
)

// Models lists every persisted model in migration order
func Models() []interface{} {
	return []interface{}{
		&model.Merchant{},
		&model.Product{},
		&model.Order{},
	}
}

// Migrate creates or updates the schema. Idempotent.
func Migrate(db *gorm.DB) error {
	return database.MigrateModels(db, Models()...)
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
