package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type poolHealth struct {
	InUse int32 `json:"in_use"`
	Idle  int32 `json:"idle"`
	Max   int32 `json:"max"`
	Waits int64 `json:"acquire_waits"`
}

// HealthHandler serves the database readiness endpoint: a bounded ping
// plus a snapshot of the connection pool.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()

		stat := pool.Stat()
		body := map[string]interface{}{
			"database": "up",
			"pool": poolHealth{
				InUse: stat.AcquiredConns(),
				Idle:  stat.IdleConns(),
				Max:   stat.MaxConns(),
				Waits: stat.EmptyAcquireCount(),
			},
		}
		if err := pool.Ping(ctx); err != nil {
			body["database"] = "down"
			body["error"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, body)
		}
		return c.JSON(http.StatusOK, body)
	}
}
