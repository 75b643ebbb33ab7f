package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/venkat-sld/shoplive/internal/apperror"
	"github.com/venkat-sld/shoplive/internal/cache"
	"github.com/venkat-sld/shoplive/internal/model"
	"github.com/venkat-sld/shoplive/internal/store"
	"github.com/venkat-sld/shoplive/pkg/logger"
	"github.com/venkat-sld/shoplive/prometheus"
	"go.uber.org/zap"
)

const (
	maxCustomerName  = 255
	maxCustomerPhone = 20
)

// OrderRequest is a customer's submission from the public product page.
// Quantity 0 means 1. Amount is what the client computed; the stored amount
// is always price times quantity.
type OrderRequest struct {
	ProductID       uint
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
	Quantity        int
	Amount          *decimal.Decimal
}

// OrderIntake accepts public orders and decrements stock atomically with them
type OrderIntake struct {
	orders *store.OrderStore
	cache  cache.ProductCache
}

func NewOrderIntake(orders *store.OrderStore, productCache cache.ProductCache) *OrderIntake {
	if productCache == nil {
		productCache = cache.NopProductCache{}
	}
	return &OrderIntake{orders: orders, cache: productCache}
}

func (r *OrderRequest) normalize() error {
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.CustomerPhone = strings.TrimSpace(r.CustomerPhone)
	r.DeliveryAddress = strings.TrimSpace(r.DeliveryAddress)

	if r.ProductID == 0 || r.CustomerName == "" || r.CustomerPhone == "" || r.DeliveryAddress == "" {
		return apperror.Validation("All fields are required")
	}
	if r.Quantity == 0 {
		r.Quantity = 1
	}
	if r.Quantity < 0 {
		return apperror.Validation("Quantity must be a positive integer")
	}
	if utf8.RuneCountInString(r.CustomerName) > maxCustomerName {
		return apperror.Validation("Customer name is too long")
	}
	if utf8.RuneCountInString(r.CustomerPhone) > maxCustomerPhone {
		return apperror.Validation("Customer phone is too long")
	}
	return nil
}

// PlaceOrder validates the request, then in one transaction checks stock,
// decrements it and records the order as pending with a simulated payment.
func (s *OrderIntake) PlaceOrder(ctx context.Context, req OrderRequest) (*model.Order, error) {
	log := logger.FromContext(ctx)

	if err := req.normalize(); err != nil {
		prometheus.RecordOrderRejected("validation")
		return nil, err
	}

	order, err := s.orders.PlaceOrder(ctx, req.ProductID, req.Quantity, func(product *model.Product) (*model.Order, error) {
		amount := product.Price.Mul(decimal.NewFromInt(int64(req.Quantity)))
		// the amount column has the same precision as price
		if amount.GreaterThanOrEqual(maxPrice) {
			return nil, apperror.Validation("Order amount is too large")
		}
		if req.Amount != nil && !req.Amount.Equal(amount) {
			log.Warn("Client order amount differs from price times quantity",
				zap.Uint("product_id", product.ID),
				zap.String("client_amount", req.Amount.String()),
				zap.String("amount", amount.String()),
			)
		}
		return &model.Order{
			CustomerName:    req.CustomerName,
			CustomerPhone:   req.CustomerPhone,
			DeliveryAddress: req.DeliveryAddress,
			Amount:          amount,
			PaymentStatus:   model.PaymentStatusSimulated,
			OrderStatus:     model.OrderStatusPending,
		}, nil
	})
	if err != nil {
		switch {
		case apperror.KindOf(err) == apperror.KindValidation:
			prometheus.RecordOrderRejected("validation")
			return nil, err
		case errors.Is(err, store.ErrNotFound):
			prometheus.RecordOrderRejected("not_found")
			return nil, apperror.NotFound("Product not found")
		case errors.Is(err, store.ErrInsufficientStock):
			prometheus.RecordOrderRejected("insufficient_stock")
			return nil, apperror.ErrInsufficientStock
		default:
			prometheus.RecordOrderRejected("error")
			return nil, internal("place order", err)
		}
	}

	if err := s.cache.Invalidate(ctx, req.ProductID); err != nil {
		log.Warn("Product cache invalidation failed", zap.Uint("product_id", req.ProductID), zap.Error(err))
	}

	prometheus.OrdersPlacedCounter.Inc()
	log.Info("Order placed",
		zap.Uint("order_id", order.ID),
		zap.Uint("product_id", order.ProductID),
		zap.Int("quantity", order.Quantity),
	)
	return order, nil
}
