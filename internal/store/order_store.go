package store

import (
	"context"
	"time"

	"github.com/venkat-sld/shoplive/internal/model"
	"github.com/venkat-sld/shoplive/prometheus"
	"gorm.io/gorm"
)

// OrderBuilder turns the product snapshot read inside the intake transaction
// into the order row. An error from it aborts the transaction unchanged.
type OrderBuilder func(product *model.Product) (*model.Order, error)

// OrderStore persists orders and performs the stock decrement that goes with them
type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

// PlaceOrder decrements stock and inserts the order in one transaction.
// The decrement is conditional on stock_quantity >= quantity, so concurrent
// orders for the same product can never drive stock below zero.
func (s *OrderStore) PlaceOrder(ctx context.Context, productID uint, quantity int, build OrderBuilder) (*model.Order, error) {
	defer prometheus.TrackDBOperation("place_order")()

	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product model.Product
		if err := tx.Take(&product, productID).Error; err != nil {
			return err
		}
		if product.StockQuantity < quantity {
			return ErrInsufficientStock
		}

		built, err := build(&product)
		if err != nil {
			return err
		}

		res := tx.Model(&model.Product{}).
			Where("id = ? AND stock_quantity >= ?", productID, quantity).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientStock
		}

		built.ProductID = product.ID
		built.Quantity = quantity
		if err := tx.Create(built).Error; err != nil {
			return err
		}
		order = built
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return order, nil
}

func (s *OrderStore) joined(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("orders").
		Select("orders.*, products.name AS product_name, products.price AS price, products.image AS image").
		Joins("JOIN products ON products.id = orders.product_id")
}

// ListForMerchant returns orders for every product the merchant owns, newest first
func (s *OrderStore) ListForMerchant(ctx context.Context, userID uint) ([]model.OrderView, error) {
	defer prometheus.TrackDBOperation("list_orders")()

	views := []model.OrderView{}
	err := s.joined(ctx).
		Where("products.user_id = ?", userID).
		Order("orders.created_at DESC, orders.id DESC").
		Scan(&views).Error
	return views, err
}

// FindOwned loads one order when its product belongs to the merchant
func (s *OrderStore) FindOwned(ctx context.Context, userID, orderID uint) (*model.OrderView, error) {
	defer prometheus.TrackDBOperation("find_order")()

	var view model.OrderView
	res := s.joined(ctx).
		Where("orders.id = ? AND products.user_id = ?", orderID, userID).
		Limit(1).
		Scan(&view)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &view, nil
}

// UpdateStatus sets the order status and returns the stored row
func (s *OrderStore) UpdateStatus(ctx context.Context, orderID uint, status model.OrderStatus) (*model.Order, error) {
	defer prometheus.TrackDBOperation("update_order_status")()

	var order model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Order{}).
			Where("id = ?", orderID).
			Updates(map[string]interface{}{
				"order_status": status,
				"updated_at":   time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Take(&order, orderID).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}
