package middleware

import (
    "context"
    "log/slog"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/iliyamo/minibus-booking/internal/logger"
)

// RequestLogger writes one access log line per request through log.
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogStatus:    true,
        LogURI:       true,
        LogMethod:    true,
        LogLatency:   true,
        LogRemoteIP:  true,
        LogError:     true,
        HandleError:  true,
        LogRequestID: true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            level := slog.LevelInfo
            attrs := []slog.Attr{
                slog.String("method", v.Method),
                slog.String("uri", v.URI),
                slog.Int("status", v.Status),
                slog.Duration("latency", v.Latency),
                slog.String("remote_ip", v.RemoteIP),
            }
            if v.RequestID != "" {
                attrs = append(attrs, slog.String("request_id", v.RequestID))
            }
            if id, _, ok := CurrentUser(c); ok {
                attrs = append(attrs, slog.Uint64("user_id", id))
            }
            if v.Error != nil {
                level = slog.LevelError
                attrs = append(attrs, slog.String("error", v.Error.Error()))
            } else if v.Status >= 500 {
                level = slog.LevelError
            }
            log.LogAttrs(context.Background(), level, "request", attrs...)
            return nil
        },
    })
}
