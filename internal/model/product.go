package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ImagePathPrefix marks image references that point at the local image store
const ImagePathPrefix = "/images/"

// Product is a sellable item owned by one merchant
type Product struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	UserID        uint            `json:"user_id" gorm:"index;not null"`
	Name          string          `json:"name" gorm:"type:varchar(255);not null"`
	Description   string          `json:"description" gorm:"type:text"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Size          *string         `json:"size" gorm:"type:varchar(100)"`
	Color         *string         `json:"color" gorm:"type:varchar(100)"`
	Image         *string         `json:"image" gorm:"type:text"`
	StockQuantity int             `json:"stock_quantity" gorm:"not null;default:0;check:stock_quantity >= 0"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Relations
	Orders []Order `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// LocalImageFilename returns the stored filename when the image lives in the local image store
func (p *Product) LocalImageFilename() (string, bool) {
	if p.Image == nil || !strings.HasPrefix(*p.Image, ImagePathPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(*p.Image, ImagePathPrefix)
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

// ProductFields is the full set of merchant-editable attributes.
// Updates replace every field; a nil pointer or zero value is stored as the default.
type ProductFields struct {
	Name          string
	Description   string
	Price         *decimal.Decimal
	Size          *string
	Color         *string
	Image         *string
	StockQuantity int
}
