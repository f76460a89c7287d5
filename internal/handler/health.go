package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Health is the liveness probe: it answers "ok" while the process serves
// requests.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// Ready returns the readiness probe.  It reports 503 while the database
// does not answer; Redis is optional and only reported.
func Ready(db Pinger, redisPing func(context.Context) error) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        status := echo.Map{"database": "ok", "redis": "disabled"}
        code := http.StatusOK
        if db != nil {
            if err := db.PingContext(ctx); err != nil {
                status["database"] = "down"
                code = http.StatusServiceUnavailable
            }
        }
        if redisPing != nil {
            status["redis"] = "ok"
            if err := redisPing(ctx); err != nil {
                status["redis"] = "down"
            }
        }
        return c.JSON(code, status)
    }
}
