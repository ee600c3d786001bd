package http

import (
	"embed"
	"net/http"

	echo "github.com/labstack/echo/v4"
)

//go:embed static
var staticFiles embed.FS

func registerFrontend(e *echo.Echo) {
	e.FileFS("/frontend", "static/index.html", staticFiles)
	e.StaticFS("/static", echo.MustSubFS(staticFiles, "static"))
}

func infoHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"mensaje": "API de Gestión de Créditos",
		"version": "1.0",
		"endpoints": map[string]string{
			"frontend":     "/frontend",
			"creditos":     "/creditos",
			"estadisticas": "/creditos/estadisticas",
			"exportar":     "/creditos/exportar",
		},
	})
}
