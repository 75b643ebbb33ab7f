package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/venkat-sld/shoplive/internal/apperror"
	"github.com/venkat-sld/shoplive/internal/cache"
	"github.com/venkat-sld/shoplive/internal/model"
	"github.com/venkat-sld/shoplive/internal/store"
	"github.com/venkat-sld/shoplive/pkg/logger"
	"github.com/venkat-sld/shoplive/prometheus"
	"go.uber.org/zap"
)

// decimal(10,2) holds at most 8 integer digits
var maxPrice = decimal.New(1, 8)

// ImageRemover deletes a stored image by filename
type ImageRemover interface {
	Delete(filename string) error
}

// CatalogService manages a merchant's products and serves the public product page
type CatalogService struct {
	products *store.ProductStore
	authz    *Authorizer
	cache    cache.ProductCache
	images   ImageRemover
}

func NewCatalogService(products *store.ProductStore, authz *Authorizer, productCache cache.ProductCache, images ImageRemover) *CatalogService {
	if productCache == nil {
		productCache = cache.NopProductCache{}
	}
	return &CatalogService{
		products: products,
		authz:    authz,
		cache:    productCache,
		images:   images,
	}
}

func validateProduct(fields *model.ProductFields) error {
	fields.Name = strings.TrimSpace(fields.Name)
	if fields.Name == "" || fields.Price == nil {
		return apperror.Validation("Name and price are required")
	}
	if fields.Price.IsNegative() {
		return apperror.Validation("Price must be non-negative")
	}
	if fields.Price.GreaterThanOrEqual(maxPrice) {
		return apperror.Validation("Price is too large")
	}
	if fields.StockQuantity < 0 {
		return apperror.Validation("Stock quantity must be non-negative")
	}
	price := fields.Price.Round(2)
	fields.Price = &price
	return nil
}

// Create adds a product owned by merchantID
func (s *CatalogService) Create(ctx context.Context, merchantID uint, fields model.ProductFields) (*model.Product, error) {
	if err := validateProduct(&fields); err != nil {
		return nil, err
	}

	product := &model.Product{
		UserID:        merchantID,
		Name:          fields.Name,
		Description:   fields.Description,
		Price:         *fields.Price,
		Size:          fields.Size,
		Color:         fields.Color,
		Image:         fields.Image,
		StockQuantity: fields.StockQuantity,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, internal("create product", err)
	}

	prometheus.RecordProductOperation("create")
	logger.FromContext(ctx).Info("Product created",
		zap.Uint("merchant_id", merchantID),
		zap.Uint("product_id", product.ID),
	)
	return product, nil
}

// List returns the merchant's products, newest first
func (s *CatalogService) List(ctx context.Context, merchantID uint) ([]model.Product, error) {
	products, err := s.products.ListByOwner(ctx, merchantID)
	if err != nil {
		return nil, internal("list products", err)
	}
	return products, nil
}

// Get is the public product fetch. It reads through the product cache.
func (s *CatalogService) Get(ctx context.Context, productID uint) (*model.Product, error) {
	log := logger.FromContext(ctx)

	cached, version, err := s.cache.Get(ctx, productID)
	switch {
	case err == nil:
		prometheus.RecordCacheResult("hit")
		return cached, nil
	case errors.Is(err, cache.ErrMiss):
		prometheus.RecordCacheResult("miss")
	default:
		prometheus.RecordCacheResult("error")
		log.Warn("Product cache read failed", zap.Uint("product_id", productID), zap.Error(err))
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.NotFound("Product not found")
		}
		return nil, internal("find product", err)
	}

	if err := s.cache.Set(ctx, product, version); err != nil {
		if errors.Is(err, cache.ErrStale) {
			prometheus.RecordCacheResult("stale")
			log.Debug("Product changed while loading, not cached", zap.Uint("product_id", productID))
		} else {
			log.Warn("Product cache write failed", zap.Uint("product_id", productID), zap.Error(err))
		}
	}
	prometheus.RecordProductOperation("view")
	return product, nil
}

// Update replaces every editable field of an owned product
func (s *CatalogService) Update(ctx context.Context, merchantID, productID uint, fields model.ProductFields) (*model.Product, error) {
	if err := validateProduct(&fields); err != nil {
		return nil, err
	}
	if _, err := s.authz.AuthorizeProduct(ctx, merchantID, productID); err != nil {
		return nil, err
	}

	product, err := s.products.Replace(ctx, merchantID, productID, fields)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.NotFoundOrUnauthorized(msgProductNotOwned)
		}
		return nil, internal("update product", err)
	}

	s.invalidate(ctx, productID)
	prometheus.RecordProductOperation("update")
	return product, nil
}

// Delete removes an owned product together with its orders, then its local image.
// The image delete is best effort: a failure is logged and the call still succeeds.
func (s *CatalogService) Delete(ctx context.Context, merchantID, productID uint) error {
	if _, err := s.authz.AuthorizeProduct(ctx, merchantID, productID); err != nil {
		return err
	}

	product, err := s.products.DeleteOwned(ctx, merchantID, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NotFoundOrUnauthorized(msgProductNotOwned)
		}
		return internal("delete product", err)
	}

	s.invalidate(ctx, productID)
	prometheus.RecordProductOperation("delete")

	if filename, ok := product.LocalImageFilename(); ok && s.images != nil {
		err := s.images.Delete(filename)
		prometheus.RecordImageOperation("delete", err == nil)
		if err != nil {
			logger.FromContext(ctx).Warn("Failed to delete product image",
				zap.Uint("product_id", productID),
				zap.String("filename", filename),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, productID uint) {
	if err := s.cache.Invalidate(ctx, productID); err != nil {
		logger.FromContext(ctx).Warn("Product cache invalidation failed",
			zap.Uint("product_id", productID),
			zap.Error(err),
		)
	}
}
