package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

func healthHandler(dbConn *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		if dbConn == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{"status": false, "database": "not configured"})
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := dbConn.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{"status": false, "database": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"status": true, "database": "ok"})
	}
}
