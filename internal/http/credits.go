package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/jmehdipour/credit-registry/internal/service/credit"
	echo "github.com/labstack/echo/v4"
)

func readPayload(c echo.Context) (credit.Payload, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, err
	}
	return credit.ParsePayload(body)
}

// creditID parses :id. Anything but a positive integer is an unknown route.
func creditID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.ErrNotFound
	}
	return id, nil
}

func createCreditHandler(svc *credit.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := readPayload(c)
		if err != nil {
			return respondError(c, "create", err)
		}

		cr, err := svc.Create(c.Request().Context(), p)
		if err != nil {
			return respondError(c, "create", err)
		}

		observe("create", outcomeOK)
		return c.JSON(http.StatusCreated, map[string]any{
			"message": "Crédito creado exitosamente",
			"id":      cr.ID,
		})
	}
}

func listCreditsHandler(svc *credit.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := svc.List(c.Request().Context())
		if err != nil {
			return respondError(c, "list", err)
		}

		observe("list", outcomeOK)
		return c.JSON(http.StatusOK, list)
	}
}

func getCreditHandler(svc *credit.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := creditID(c)
		if err != nil {
			return err
		}

		cr, err := svc.Get(c.Request().Context(), id)
		if err != nil {
			return respondError(c, "get", err)
		}

		observe("get", outcomeOK)
		return c.JSON(http.StatusOK, cr)
	}
}

func updateCreditHandler(svc *credit.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := creditID(c)
		if err != nil {
			return err
		}

		p, err := readPayload(c)
		if err != nil {
			return respondError(c, "update", err)
		}

		if _, err := svc.Update(c.Request().Context(), id, p); err != nil {
			return respondError(c, "update", err)
		}

		observe("update", outcomeOK)
		return c.JSON(http.StatusOK, map[string]string{"message": "Crédito actualizado exitosamente"})
	}
}

func deleteCreditHandler(svc *credit.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := creditID(c)
		if err != nil {
			return err
		}

		if err := svc.Delete(c.Request().Context(), id); err != nil {
			return respondError(c, "delete", err)
		}

		observe("delete", outcomeOK)
		return c.JSON(http.StatusOK, map[string]string{"message": "Crédito eliminado exitosamente"})
	}
}

func totalHandler(svc *credit.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		total, err := svc.Total(c.Request().Context())
		if err != nil {
			return respondError(c, "stats", err)
		}

		observe("stats", outcomeOK)
		return c.JSON(http.StatusOK, map[string]float64{"total_creditos": total})
	}
}

func byClientHandler(svc *credit.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		totals, err := svc.TotalsByClient(c.Request().Context())
		if err != nil {
			return respondError(c, "stats", err)
		}

		observe("stats", outcomeOK)
		return c.JSON(http.StatusOK, totals)
	}
}

func rangesHandler(svc *credit.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		buckets, err := svc.AmountRanges(c.Request().Context())
		if err != nil {
			return respondError(c, "stats", err)
		}

		observe("stats", outcomeOK)
		return c.JSON(http.StatusOK, buckets)
	}
}

func statsHandler(svc *credit.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		summary, err := svc.Summary(c.Request().Context())
		if err != nil {
			return respondError(c, "stats", err)
		}

		observe("stats", outcomeOK)
		return c.JSON(http.StatusOK, summary)
	}
}
