package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/venkat-sld/shoplive/internal/apperror"
	"github.com/venkat-sld/shoplive/internal/service"
)

// OrderRequest is the public order form body
type OrderRequest struct {
	ProductID       looseNumber `json:"product_id"`
	CustomerName    string      `json:"customer_name"`
	CustomerPhone   string      `json:"customer_phone"`
	DeliveryAddress string      `json:"delivery_address"`
	Quantity        looseNumber `json:"quantity"`
	Amount          looseNumber `json:"amount"`
}

// StatusRequest is the order status update body
type StatusRequest struct {
	OrderStatus string `json:"order_status"`
}

// OrderHandler serves public order intake and the merchant order ledger
type OrderHandler struct {
	intake *service.OrderIntake
	ledger *service.OrderLedger
}

func NewOrderHandler(intake *service.OrderIntake, ledger *service.OrderLedger) *OrderHandler {
	return &OrderHandler{intake: intake, ledger: ledger}
}

// PlaceOrder handles the public POST /api/orders
func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, errInvalidRequest)
	}

	productID, err := req.ProductID.Int()
	if err != nil || productID < 0 {
		return respondError(c, apperror.Validation("Invalid product_id"))
	}
	quantity, err := req.Quantity.Int()
	if err != nil {
		return respondError(c, apperror.Validation("Quantity must be a positive integer"))
	}
	// the amount is advisory; an unparsable one is treated as absent
	amount, _ := req.Amount.Decimal()

	order, err := h.intake.PlaceOrder(c.Request().Context(), service.OrderRequest{
		ProductID:       uint(productID),
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.DeliveryAddress,
		Quantity:        quantity,
		Amount:          amount,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Order placed successfully",
		"orderId": order.ID,
	})
}

// ListOrders handles GET /api/orders
func (h *OrderHandler) ListOrders(c echo.Context) error {
	id, err := merchantID(c)
	if err != nil {
		return respondError(c, err)
	}

	orders, err := h.ledger.List(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// GetOrder handles GET /api/orders/:id
func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, err := merchantID(c)
	if err != nil {
		return respondError(c, err)
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return respondError(c, apperror.NotFoundOrUnauthorized("Order not found or unauthorized"))
	}

	order, err := h.ledger.Get(c.Request().Context(), id, orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus handles PUT /api/orders/:id/status
func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	id, err := merchantID(c)
	if err != nil {
		return respondError(c, err)
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return respondError(c, apperror.NotFoundOrUnauthorized("Order not found or unauthorized"))
	}

	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, errInvalidRequest)
	}

	order, err := h.ledger.UpdateStatus(c.Request().Context(), id, orderID, req.OrderStatus)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}
