package store

import (
	"context"
	"errors"

	"github.com/venkat-sld/shoplive/internal/model"
	"github.com/venkat-sld/shoplive/prometheus"
	"gorm.io/gorm"
)

// MerchantStore persists merchant accounts
type MerchantStore struct {
	db *gorm.DB
}

func NewMerchantStore(db *gorm.DB) *MerchantStore {
	return &MerchantStore{db: db}
}

// Create inserts the merchant; a taken email yields ErrDuplicateEmail
func (s *MerchantStore) Create(ctx context.Context, merchant *model.Merchant) error {
	defer prometheus.TrackDBOperation("create_merchant")()

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Merchant{}).
		Where("email = ?", merchant.Email).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateEmail
	}

	// the unique index still decides when two registrations race
	if err := s.db.WithContext(ctx).Create(merchant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (s *MerchantStore) FindByEmail(ctx context.Context, email string) (*model.Merchant, error) {
	defer prometheus.TrackDBOperation("find_merchant")()

	var merchant model.Merchant
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&merchant).Error; err != nil {
		return nil, translate(err)
	}
	return &merchant, nil
}

func (s *MerchantStore) FindByID(ctx context.Context, id uint) (*model.Merchant, error) {
	defer prometheus.TrackDBOperation("find_merchant")()

	var merchant model.Merchant
	if err := s.db.WithContext(ctx).Take(&merchant, id).Error; err != nil {
		return nil, translate(err)
	}
	return &merchant, nil
}
