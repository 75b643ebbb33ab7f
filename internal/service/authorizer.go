// Package service holds the business rules between the HTTP handlers and the stores.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/venkat-sld/shoplive/internal/apperror"
	"github.com/venkat-sld/shoplive/internal/model"
	"github.com/venkat-sld/shoplive/internal/store"
)

const (
	msgProductNotOwned = "Product not found or unauthorized"
	msgOrderNotOwned   = "Order not found or unauthorized"
	msgServerError     = "Server error"
)

// Authorizer answers whether a merchant owns a product or an order.
// A record that does not exist and a record owned by someone else fail the same way.
type Authorizer struct {
	products *store.ProductStore
	orders   *store.OrderStore
}

func NewAuthorizer(products *store.ProductStore, orders *store.OrderStore) *Authorizer {
	return &Authorizer{products: products, orders: orders}
}

// AuthorizeProduct returns the product when merchantID owns it
func (a *Authorizer) AuthorizeProduct(ctx context.Context, merchantID, productID uint) (*model.Product, error) {
	product, err := a.products.FindOwned(ctx, merchantID, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.NotFoundOrUnauthorized(msgProductNotOwned)
		}
		return nil, internal("authorize product", err)
	}
	return product, nil
}

// AuthorizeOrder returns the order when its product belongs to merchantID
func (a *Authorizer) AuthorizeOrder(ctx context.Context, merchantID, orderID uint) (*model.OrderView, error) {
	view, err := a.orders.FindOwned(ctx, merchantID, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.NotFoundOrUnauthorized(msgOrderNotOwned)
		}
		return nil, internal("authorize order", err)
	}
	return view, nil
}

func internal(op string, err error) error {
	return apperror.Internal(msgServerError, fmt.Errorf("%s: %w", op, err))
}
