package model

import (
	"time"
)

// Merchant is the tenant account that owns products
type Merchant struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FirstName   string    `json:"first_name" gorm:"type:varchar(255)"`
	LastName    string    `json:"last_name" gorm:"type:varchar(255)"`
	Email       string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Password    string    `json:"-" gorm:"type:varchar(255);not null"`
	CompanyName string    `json:"company_name" gorm:"type:varchar(255)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Products []Product `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
