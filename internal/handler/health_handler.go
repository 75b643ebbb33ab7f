package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/venkat-sld/shoplive/pkg/database"
	"github.com/venkat-sld/shoplive/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const pingTimeout = 2 * time.Second

// HealthHandler reports liveness and database reachability
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	response := echo.Map{
		"status":  "ok",
		"message": "Server is running",
		"time":    time.Now().Format(time.RFC3339),
	}

	if err := database.Ping(c.Request().Context(), h.db, pingTimeout); err != nil {
		logger.FromEcho(c).Error("Database ping error", zap.Error(err))
		response["status"] = "error"
		response["db_status"] = "error"
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	response["db_status"] = "ok"
	return c.JSON(http.StatusOK, response)
}

// Hello returns the API banner
func Hello(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Live Sales Platform API"})
}
