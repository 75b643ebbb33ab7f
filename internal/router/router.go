// Package router assembles the echo application: middleware, handlers and routes.
package router

import (
	"errors"
	"math"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/venkat-sld/shoplive/internal/cache"
	"github.com/venkat-sld/shoplive/internal/handler"
	"github.com/venkat-sld/shoplive/internal/media"
	"github.com/venkat-sld/shoplive/internal/middleware"
	"github.com/venkat-sld/shoplive/internal/service"
	"github.com/venkat-sld/shoplive/internal/store"
	"github.com/venkat-sld/shoplive/pkg/config"
	"github.com/venkat-sld/shoplive/pkg/jwtutil"
	"github.com/venkat-sld/shoplive/pkg/logger"
	"github.com/venkat-sld/shoplive/pkg/metrics"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// JSON request bodies are small; image uploads are capped by the upload handler
const jsonBodyLimit = "1M"

// Deps are the long-lived resources the application is built from
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Images *media.LocalStore
	// Cache defaults to no caching
	Cache cache.ProductCache
	// Registerer receives the HTTP collectors; nil means the default registry
	Registerer prometheus.Registerer
}

// New builds the echo application with every route registered
func New(deps Deps) (*echo.Echo, error) {
	if deps.Config == nil || deps.DB == nil || deps.Images == nil {
		return nil, errors.New("router: config, db and image store are required")
	}
	cfg := deps.Config
	productCache := deps.Cache
	if productCache == nil {
		productCache = cache.NopProductCache{}
	}

	tokens := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
	})

	merchants := store.NewMerchantStore(deps.DB)
	products := store.NewProductStore(deps.DB)
	orders := store.NewOrderStore(deps.DB)
	authz := service.NewAuthorizer(products, orders)

	authHandler := handler.NewAuthHandler(service.NewAuthService(merchants, tokens))
	productHandler := handler.NewProductHandler(service.NewCatalogService(products, authz, productCache, deps.Images))
	orderHandler := handler.NewOrderHandler(
		service.NewOrderIntake(orders, productCache),
		service.NewOrderLedger(orders, authz),
	)
	uploadHandler := handler.NewUploadHandler(deps.Images)
	healthHandler := handler.NewHealthHandler(deps.DB)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(cfg.Server.IsProduction())

	httpMetrics := metrics.NewHTTPMetrics(cfg.ServiceName, deps.Registerer)

	// Middleware
	e.Use(echomw.Recover())
	e.Use(corsMiddleware(cfg.Server.CORSOrigin))
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(httpMetrics.Middleware())

	// Operational routes
	e.GET("/", handler.Hello)
	e.GET("/health", healthHandler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(httpMetrics.Handler()))
	e.Static("/images", deps.Images.Dir())

	api := e.Group("/api")
	requireAuth := middleware.JWTAuthMiddleware(tokens)
	jsonBody := echomw.BodyLimit(jsonBodyLimit)

	// Auth
	api.POST("/auth/register", authHandler.Register, jsonBody)
	api.POST("/auth/login", authHandler.Login, jsonBody)
	api.GET("/profile", authHandler.Profile, requireAuth)

	// Catalog
	api.GET("/products", productHandler.ListProducts, requireAuth)
	api.POST("/products", productHandler.CreateProduct, requireAuth, jsonBody)
	api.GET("/products/:id", productHandler.GetProduct)
	api.PUT("/products/:id", productHandler.UpdateProduct, requireAuth, jsonBody)
	api.DELETE("/products/:id", productHandler.DeleteProduct, requireAuth)

	// Orders
	api.POST("/orders", orderHandler.PlaceOrder, append(orderRateLimit(cfg.Server.OrderRateLimit), jsonBody)...)
	api.GET("/orders", orderHandler.ListOrders, requireAuth)
	api.GET("/orders/:id", orderHandler.GetOrder, requireAuth)
	api.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus, requireAuth, jsonBody)

	// Images
	api.POST("/upload/image", uploadHandler.UploadImage, requireAuth)
	api.DELETE("/upload/image/:filename", uploadHandler.DeleteImage, requireAuth)

	return e, nil
}

func corsMiddleware(origin string) echo.MiddlewareFunc {
	if origin == "" || origin == "*" {
		return echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: []string{"*"}})
	}
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{origin},
		AllowCredentials: true,
	})
}

// orderRateLimit limits public order submissions per client IP; perSecond <= 0 disables it
func orderRateLimit(perSecond float64) []echo.MiddlewareFunc {
	if perSecond <= 0 {
		return nil
	}

	limiterStore := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:  rate.Limit(perSecond),
		Burst: int(math.Ceil(perSecond)),
	})
	return []echo.MiddlewareFunc{
		echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
			Store: limiterStore,
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			ErrorHandler: func(c echo.Context, err error) error {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "Access denied"})
			},
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "Too many requests"})
			},
		}),
	}
}
