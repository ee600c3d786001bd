package http

import (
	"errors"
	"net/http"

	"github.com/jmehdipour/credit-registry/internal/logger"
	"github.com/jmehdipour/credit-registry/internal/metrics"
	"github.com/jmehdipour/credit-registry/internal/repository"
	"github.com/jmehdipour/credit-registry/internal/service/credit"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	msgInternal         = "Error interno del servidor"
	msgNotFound         = "Página no encontrada"
	msgCreditNotFound   = "Crédito no encontrado"
	msgMethodNotAllowed = "Método no permitido"
)

const (
	outcomeOK       = "ok"
	outcomeInvalid  = "invalid"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

func observe(op, outcome string) {
	metrics.CreditOperations.WithLabelValues(op, outcome).Inc()
}

// respondError maps service errors to responses: validation -> 400,
// missing credit -> 404, anything else -> logged 500 without detail.
func respondError(c echo.Context, op string, err error) error {
	var (
		ve *credit.ValidationError
		he *echo.HTTPError
	)
	switch {
	case errors.As(err, &he):
		// e.g. body limit exceeded while reading; httpErrorHandler renders it
		observe(op, outcomeInvalid)
		return he

	case errors.As(err, &ve):
		observe(op, outcomeInvalid)
		body := map[string]string{"error": ve.Reason}
		if ve.Field != "" {
			body["campo"] = ve.Field
		}
		return c.JSON(http.StatusBadRequest, body)

	case errors.Is(err, repository.ErrNotFound):
		observe(op, outcomeNotFound)
		return c.JSON(http.StatusNotFound, map[string]string{"error": msgCreditNotFound})

	default:
		observe(op, outcomeError)
		logger.Log.Error("credit operation failed", zap.String("op", op), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": msgInternal})
	}
}

// httpErrorHandler renders errors that escape handlers: unmatched routes,
// wrong methods, oversized bodies and recovered panics.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}

	var msg string
	switch code {
	case http.StatusNotFound:
		msg = msgNotFound
	case http.StatusMethodNotAllowed:
		msg = msgMethodNotAllowed
	case http.StatusInternalServerError:
		logger.Log.Error("unhandled error",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		msg = msgInternal
	default:
		msg = http.StatusText(code)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]string{"error": msg})
}
