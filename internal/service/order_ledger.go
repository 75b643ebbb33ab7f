package service

import (
	"context"
	"errors"
	"strings"

	"github.com/venkat-sld/shoplive/internal/apperror"
	"github.com/venkat-sld/shoplive/internal/model"
	"github.com/venkat-sld/shoplive/internal/store"
	"github.com/venkat-sld/shoplive/pkg/logger"
	"github.com/venkat-sld/shoplive/prometheus"
	"go.uber.org/zap"
)

// OrderLedger is the merchant's view of orders placed against their products
type OrderLedger struct {
	orders *store.OrderStore
	authz  *Authorizer
}

func NewOrderLedger(orders *store.OrderStore, authz *Authorizer) *OrderLedger {
	return &OrderLedger{orders: orders, authz: authz}
}

// List returns the merchant's orders with product details, newest first
func (l *OrderLedger) List(ctx context.Context, merchantID uint) ([]model.OrderView, error) {
	views, err := l.orders.ListForMerchant(ctx, merchantID)
	if err != nil {
		return nil, internal("list orders", err)
	}
	return views, nil
}

// Get returns one order when the merchant owns its product
func (l *OrderLedger) Get(ctx context.Context, merchantID, orderID uint) (*model.OrderView, error) {
	return l.authz.AuthorizeOrder(ctx, merchantID, orderID)
}

// UpdateStatus sets the order status. Any status may follow any other and
// repeating the current status succeeds.
func (l *OrderLedger) UpdateStatus(ctx context.Context, merchantID, orderID uint, status string) (*model.Order, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, apperror.Validation("Order status is required")
	}
	next := model.OrderStatus(strings.ToLower(status))
	if !next.Valid() {
		return nil, apperror.Validation("Invalid order status")
	}

	if _, err := l.authz.AuthorizeOrder(ctx, merchantID, orderID); err != nil {
		return nil, err
	}

	order, err := l.orders.UpdateStatus(ctx, orderID, next)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.NotFoundOrUnauthorized(msgOrderNotOwned)
		}
		return nil, internal("update order status", err)
	}

	prometheus.OrderStatusUpdatesCounter.WithLabelValues(string(next)).Inc()
	logger.FromContext(ctx).Info("Order status updated",
		zap.Uint("order_id", orderID),
		zap.String("status", string(next)),
	)
	return order, nil
}
