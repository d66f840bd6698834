package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type dbHealth struct {
	Status        string `json:"status"`
	PingMillis    int64  `json:"ping_ms"`
	TotalConns    int32  `json:"total_conns"`
	IdleConns     int32  `json:"idle_conns"`
	AcquiredConns int32  `json:"acquired_conns"`
	MaxConns      int32  `json:"max_conns"`
	Error         string `json:"error,omitempty"`
}

// HealthHandler reports database reachability with a round-trip
// measurement and a snapshot of the pool. Unreachable yields 503 so load
// balancers can pull the instance.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
		defer cancel()

		start := time.Now()
		pingErr := pool.Ping(ctx)
		rtt := time.Since(start)

		stat := pool.Stat()
		body := dbHealth{
			Status:        "healthy",
			PingMillis:    rtt.Milliseconds(),
			TotalConns:    stat.TotalConns(),
			IdleConns:     stat.IdleConns(),
			AcquiredConns: stat.AcquiredConns(),
			MaxConns:      stat.MaxConns(),
		}
		if pingErr != nil {
			body.Status = "unhealthy"
			body.Error = pingErr.Error()
			return c.JSON(http.StatusServiceUnavailable, body)
		}
		return c.JSON(http.StatusOK, body)
	}
}
