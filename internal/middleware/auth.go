package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/venkat-sld/shoplive/pkg/jwtutil"
	"github.com/venkat-sld/shoplive/pkg/logger"
	"go.uber.org/zap"
)

// ClaimsKey is the echo context key holding the validated token claims
const ClaimsKey = "merchant"

// JWTAuthMiddleware creates a middleware that validates merchant bearer tokens
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			scheme, token, _ := strings.Cut(c.Request().Header.Get(echo.HeaderAuthorization), " ")
			token = strings.TrimSpace(token)
			if token == "" {
				log.Warn("Missing bearer token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Access denied"})
			}
			if !strings.EqualFold(scheme, "Bearer") {
				log.Warn("Invalid authorization scheme", zap.String("scheme", scheme))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token"})
			}

			claims, err := jwtUtil.ValidateToken(token)
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token"})
			}

			c.Set(ClaimsKey, claims)
			logger.Bind(c, log.With(zap.Uint("merchant_id", claims.ID)))

			return next(c)
		}
	}
}

// MerchantID returns the authenticated merchant's id
func MerchantID(c echo.Context) (uint, bool) {
	claims, ok := c.Get(ClaimsKey).(*jwtutil.MerchantClaims)
	if !ok || claims == nil {
		return 0, false
	}
	return claims.ID, true
}
