package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/venkat-sld/shoplive/internal/apperror"
	"github.com/venkat-sld/shoplive/internal/middleware"
	"github.com/venkat-sld/shoplive/pkg/logger"
	"go.uber.org/zap"
)

var errInvalidRequest = apperror.Validation("Invalid request data")

// respondError writes err as {"error": message} with the status of its kind
func respondError(c echo.Context, err error) error {
	log := logger.FromEcho(c)
	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal {
		log.Error("Request failed", zap.Error(err))
	} else {
		log.Info("Request rejected", zap.String("kind", kind.String()), zap.String("reason", apperror.MessageOf(err)))
	}
	return c.JSON(kind.HTTPStatus(), echo.Map{"error": apperror.MessageOf(err)})
}

// pathID parses a positive numeric path parameter
func pathID(c echo.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// merchantID reads the id set by the auth middleware
func merchantID(c echo.Context) (uint, error) {
	id, ok := middleware.MerchantID(c)
	if !ok {
		return 0, apperror.Unauthorized("Access denied")
	}
	return id, nil
}

// looseNumber accepts a JSON number or a numeric string.
// null, "" and an absent field all leave it unset.
type looseNumber struct {
	raw string
	set bool
}

func (n *looseNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = looseNumber{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	if s == "" {
		*n = looseNumber{}
		return nil
	}
	n.raw, n.set = s, true
	return nil
}

func (n looseNumber) Decimal() (*decimal.Decimal, error) {
	if !n.set {
		return nil, nil
	}
	d, err := decimal.NewFromString(n.raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (n looseNumber) Int() (int, error) {
	if !n.set {
		return 0, nil
	}
	i, err := strconv.Atoi(n.raw)
	if err != nil {
		return 0, errors.New("not an integer")
	}
	return i, nil
}

// optional turns an empty string into NULL
func optional(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// NewHTTPErrorHandler renders echo's own errors and anything a handler
// returned unhandled as {"error": ...}. Outside production a 500 also carries details.
func NewHTTPErrorHandler(production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := echo.Map{"error": "Internal server error"}

		var httpErr *echo.HTTPError
		var appErr *apperror.Error
		switch {
		case errors.As(err, &appErr):
			status = appErr.Kind.HTTPStatus()
			body["error"] = apperror.MessageOf(err)
		case errors.As(err, &httpErr):
			status = httpErr.Code
			if msg, ok := httpErr.Message.(string); ok && status < http.StatusInternalServerError {
				body["error"] = msg
			} else if status < http.StatusInternalServerError {
				body["error"] = http.StatusText(status)
			}
		}

		if status >= http.StatusInternalServerError {
			logger.FromEcho(c).Error("Unhandled error", zap.Error(err))
			if !production {
				body["details"] = err.Error()
			}
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.FromEcho(c).Error("Failed to write error response", zap.Error(writeErr))
		}
	}
}
