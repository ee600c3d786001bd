package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jmehdipour/credit-registry/internal/logger"
	"github.com/jmehdipour/credit-registry/internal/model"
	"github.com/jmehdipour/credit-registry/internal/repository"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func listEventsHandler(chRepo repository.CHEventsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		var creditID int64
		if v := c.QueryParam("credito_id"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n <= 0 {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "credito_id inválido"})
			}
			creditID = n
		}

		var typ model.CreditEventType
		if raw := strings.TrimSpace(c.QueryParam("tipo")); raw != "" {
			typ = model.CreditEventType(raw)
			if !typ.Valid() {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "tipo inválido"})
			}
		}

		events, err := chRepo.List(c.Request().Context(), creditID, typ, limit, offset)
		if err != nil {
			logger.Log.Error("clickhouse list failed", zap.Error(err))

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": msgInternal})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(events),
			"results": events,
		})
	}
}
