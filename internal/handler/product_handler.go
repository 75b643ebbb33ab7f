package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/venkat-sld/shoplive/internal/apperror"
	"github.com/venkat-sld/shoplive/internal/model"
	"github.com/venkat-sld/shoplive/internal/service"
)

// ProductRequest is the create and update body. Update is a full replace:
// omitted fields are stored as their defaults.
type ProductRequest struct {
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Price         looseNumber `json:"price"`
	Size          *string     `json:"size"`
	Color         *string     `json:"color"`
	Image         *string     `json:"image"`
	StockQuantity looseNumber `json:"stock_quantity"`
}

func (r *ProductRequest) fields() (model.ProductFields, error) {
	price, err := r.Price.Decimal()
	if err != nil {
		return model.ProductFields{}, apperror.Validation("Price must be a number")
	}
	stock, err := r.StockQuantity.Int()
	if err != nil {
		return model.ProductFields{}, apperror.Validation("Stock quantity must be an integer")
	}
	return model.ProductFields{
		Name:          r.Name,
		Description:   r.Description,
		Price:         price,
		Size:          optional(r.Size),
		Color:         optional(r.Color),
		Image:         optional(r.Image),
		StockQuantity: stock,
	}, nil
}

// ProductHandler serves the merchant catalog and the public product page
type ProductHandler struct {
	catalog *service.CatalogService
}

func NewProductHandler(catalog *service.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(c echo.Context) error {
	id, err := merchantID(c)
	if err != nil {
		return respondError(c, err)
	}

	products, err := h.catalog.List(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	id, err := merchantID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, errInvalidRequest)
	}
	fields, err := req.fields()
	if err != nil {
		return respondError(c, err)
	}

	product, err := h.catalog.Create(c.Request().Context(), id, fields)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// GetProduct handles the public GET /api/products/:id. A relative image
// path is rewritten into an absolute URL on this host.
func (h *ProductHandler) GetProduct(c echo.Context) error {
	productID, ok := pathID(c, "id")
	if !ok {
		return respondError(c, apperror.NotFound("Product not found"))
	}

	product, err := h.catalog.Get(c.Request().Context(), productID)
	if err != nil {
		return respondError(c, err)
	}

	if product.Image != nil && !strings.HasPrefix(*product.Image, "http") {
		image := c.Scheme() + "://" + c.Request().Host + *product.Image
		product.Image = &image
	}
	return c.JSON(http.StatusOK, product)
}

// UpdateProduct handles PUT /api/products/:id
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := merchantID(c)
	if err != nil {
		return respondError(c, err)
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return respondError(c, apperror.NotFoundOrUnauthorized("Product not found or unauthorized"))
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, errInvalidRequest)
	}
	fields, err := req.fields()
	if err != nil {
		return respondError(c, err)
	}

	product, err := h.catalog.Update(c.Request().Context(), id, productID, fields)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/:id
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := merchantID(c)
	if err != nil {
		return respondError(c, err)
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return respondError(c, apperror.NotFoundOrUnauthorized("Product not found or unauthorized"))
	}

	if err := h.catalog.Delete(c.Request().Context(), id, productID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Product deleted successfully",
	})
}
