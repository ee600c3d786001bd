package http

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jmehdipour/credit-registry/internal/model"
	"github.com/jmehdipour/credit-registry/internal/service/credit"
	echo "github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Créditos"

var exportHeaders = []string{"ID", "Cliente", "Monto", "Tasa de interés", "Plazo (meses)", "Fecha de otorgamiento"}

// exportCreditsHandler downloads every credit as CSV (default) or XLSX (?formato=xlsx).
func exportCreditsHandler(svc *credit.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		format := c.QueryParam("formato")
		if format == "" {
			format = "csv"
		}
		if format != "csv" && format != "xlsx" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "formato debe ser csv o xlsx"})
		}

		list, err := svc.List(c.Request().Context())
		if err != nil {
			return respondError(c, "export", err)
		}
		observe("export", outcomeOK)

		filename := fmt.Sprintf("creditos_%s.%s", time.Now().Format("20060102"), format)
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))

		if format == "xlsx" {
			return writeXLSX(c, list)
		}
		return writeCSV(c, list)
	}
}

func exportRow(cr model.Credit) []string {
	return []string{
		strconv.FormatInt(cr.ID, 10),
		cr.ClientName,
		strconv.FormatFloat(cr.Amount, 'f', -1, 64),
		strconv.FormatFloat(cr.InterestRate, 'f', -1, 64),
		strconv.Itoa(cr.TermMonths),
		cr.GrantDate,
	}
}

func writeCSV(c echo.Context, list []model.Credit) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)

	// UTF-8 BOM so spreadsheet apps keep the accents
	if _, err := c.Response().Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	w := csv.NewWriter(c.Response())
	if err := w.Write(exportHeaders); err != nil {
		return err
	}
	for _, cr := range list {
		if err := w.Write(exportRow(cr)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeXLSX(c echo.Context, list []model.Credit) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// rename the default sheet instead of adding a second one
	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return err
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return err
		}
	}
	for idx, cr := range list {
		row := idx + 2
		values := []any{cr.ID, cr.ClientName, cr.Amount, cr.InterestRate, cr.TermMonths, cr.GrantDate}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return err
			}
		}
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 8)
	_ = f.SetColWidth(exportSheet, "B", "B", 30)
	_ = f.SetColWidth(exportSheet, "C", "E", 14)
	_ = f.SetColWidth(exportSheet, "F", "F", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
