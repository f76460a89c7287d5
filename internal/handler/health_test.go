package handler

import (
    "context"
    "errors"
    "net/http"
    "testing"

    "github.com/labstack/echo/v4"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestReady(t *testing.T) {
    down := errors.New("down")
    cases := []struct {
        name   string
        db     Pinger
        redis  func(context.Context) error
        code   int
        status map[string]string
    }{
        {"all up", pingFunc(func(context.Context) error { return nil }), func(context.Context) error { return nil }, http.StatusOK, map[string]string{"database": "ok", "redis": "ok"}},
        {"redis disabled", pingFunc(func(context.Context) error { return nil }), nil, http.StatusOK, map[string]string{"database": "ok", "redis": "disabled"}},
        {"redis down", pingFunc(func(context.Context) error { return nil }), func(context.Context) error { return down }, http.StatusOK, map[string]string{"database": "ok", "redis": "down"}},
        {"database down", pingFunc(func(context.Context) error { return down }), nil, http.StatusServiceUnavailable, map[string]string{"database": "down", "redis": "disabled"}},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            e := echo.New()
            e.GET("/healthz", Health)
            e.GET("/readyz", Ready(tc.db, tc.redis))
            app := &testApp{e: e}

            var got map[string]string
            if code := app.do(t, http.MethodGet, "/readyz", "", "", &got); code != tc.code {
                t.Fatalf("expected %d, got %d", tc.code, code)
            }
            for k, v := range tc.status {
                if got[k] != v {
                    t.Fatalf("expected %s=%s, got %v", k, v, got)
                }
            }
            if code := app.do(t, http.MethodGet, "/healthz", "", "", nil); code != http.StatusOK {
                t.Fatalf("expected 200, got %d", code)
            }
        })
    }
}
