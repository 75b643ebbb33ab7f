package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/venkat-sld/shoplive/internal/model"
	"github.com/venkat-sld/shoplive/prometheus"
	"gorm.io/gorm"
)

// ProductStore persists products. Every mutation is scoped by owner id.
type ProductStore struct {
	db *gorm.DB
}

func NewProductStore(db *gorm.DB) *ProductStore {
	return &ProductStore{db: db}
}

func (s *ProductStore) Create(ctx context.Context, product *model.Product) error {
	defer prometheus.TrackDBOperation("create_product")()
	return s.db.WithContext(ctx).Create(product).Error
}

// ListByOwner returns the merchant's products, newest first
func (s *ProductStore) ListByOwner(ctx context.Context, userID uint) ([]model.Product, error) {
	defer prometheus.TrackDBOperation("list_products")()

	products := []model.Product{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&products).Error
	return products, err
}

// FindByID loads any product regardless of owner
func (s *ProductStore) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	defer prometheus.TrackDBOperation("find_product")()

	var product model.Product
	if err := s.db.WithContext(ctx).Take(&product, id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// FindOwned loads the product only when userID owns it
func (s *ProductStore) FindOwned(ctx context.Context, userID, id uint) (*model.Product, error) {
	defer prometheus.TrackDBOperation("find_product")()

	var product model.Product
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&product).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// Replace overwrites every editable field of an owned product and returns the stored row
func (s *ProductStore) Replace(ctx context.Context, userID, id uint, fields model.ProductFields) (*model.Product, error) {
	defer prometheus.TrackDBOperation("update_product")()

	price := decimal.Zero
	if fields.Price != nil {
		price = *fields.Price
	}

	var product model.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Product{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(map[string]interface{}{
				"name":           fields.Name,
				"description":    fields.Description,
				"price":          price,
				"size":           fields.Size,
				"color":          fields.Color,
				"image":          fields.Image,
				"stock_quantity": fields.StockQuantity,
				"updated_at":     time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Take(&product, id).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// DeleteOwned removes an owned product and its orders in one transaction and
// returns the deleted row so the caller can clean up its image.
func (s *ProductStore) DeleteOwned(ctx context.Context, userID, id uint) (*model.Product, error) {
	defer prometheus.TrackDBOperation("delete_product")()

	var product model.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).Take(&product).Error; err != nil {
			return err
		}
		// same effect as the ON DELETE CASCADE constraint, independent of the driver enforcing it
		if err := tx.Where("product_id = ?", product.ID).Delete(&model.Order{}).Error; err != nil {
			return err
		}
		return tx.Delete(&product).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}
