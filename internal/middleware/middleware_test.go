package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/minibus-booking/internal/config"
    "github.com/iliyamo/minibus-booking/internal/logger"
    "github.com/iliyamo/minibus-booking/internal/utils"
)

func newRedis(t *testing.T) *redis.Client {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    return rdb
}

func do(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, nil)
    if token != "" {
        req.Header.Set("Authorization", "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestJWTAuthAndRole(t *testing.T) {
    e := echo.New()
    g := e.Group("/admin", JWTAuth("secret"), RequireRole("ADMIN"))
    g.GET("/ping", func(c echo.Context) error {
        id, role, _ := CurrentUser(c)
        return c.JSON(http.StatusOK, echo.Map{"id": id, "role": role})
    })
    admin, _ := utils.NewAccessToken("secret", 1, "ADMIN", 5)
    customer, _ := utils.NewAccessToken("secret", 2, "CUSTOMER", 5)

    cases := []struct {
        name  string
        token string
        want  int
    }{
        {"no token", "", http.StatusUnauthorized},
        {"bad token", "garbage", http.StatusUnauthorized},
        {"wrong role", customer.Token, http.StatusForbidden},
        {"admin", admin.Token, http.StatusOK},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            if rec := do(e, http.MethodGet, "/admin/ping", tc.token); rec.Code != tc.want {
                t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
            }
        })
    }
}

func TestTokenBucket(t *testing.T) {
    e := echo.New()
    cfg := config.RateLimitConfig{
        Enabled:        true,
        Capacity:       2,
        RefillTokens:   1,
        RefillInterval: time.Minute,
        TTL:            10 * time.Minute,
        KeyStrategy:    "ip",
        Prefix:         "rl",
    }
    e.Use(NewTokenBucket(cfg, newRedis(t), logger.Discard()))
    e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

    for i := 0; i < 2; i++ {
        if rec := do(e, http.MethodGet, "/", ""); rec.Code != http.StatusNoContent {
            t.Fatalf("request %d: expected 204, got %d", i, rec.Code)
        }
    }
    rec := do(e, http.MethodGet, "/", "")
    if rec.Code != http.StatusTooManyRequests {
        t.Fatalf("expected 429, got %d", rec.Code)
    }
    if rec.Header().Get("Retry-After") == "" || rec.Header().Get("X-RateLimit-Remaining") != "0" {
        t.Fatalf("unexpected headers %v", rec.Header())
    }
}

func TestTokenBucket_DisabledWithoutRedis(t *testing.T) {
    e := echo.New()
    e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, logger.Discard()))
    e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
    for i := 0; i < 3; i++ {
        if rec := do(e, http.MethodGet, "/", ""); rec.Code != http.StatusNoContent {
            t.Fatalf("expected pass-through, got %d", rec.Code)
        }
    }
}

func TestRedisCache(t *testing.T) {
    e := echo.New()
    calls := 0
    cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1 << 20}
    e.GET("/v1/cities", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusOK, echo.Map{"calls": calls})
    }, NewRedisCache(cfg, newRedis(t)))

    first := do(e, http.MethodGet, "/v1/cities", "")
    second := do(e, http.MethodGet, "/v1/cities", "")
    if first.Header().Get("X-Cache") != "MISS" || second.Header().Get("X-Cache") != "HIT" {
        t.Fatalf("unexpected cache headers %q %q", first.Header().Get("X-Cache"), second.Header().Get("X-Cache"))
    }
    if calls != 1 || first.Body.String() != second.Body.String() {
        t.Fatalf("expected cached body, calls=%d bodies %q %q", calls, first.Body.String(), second.Body.String())
    }
    if ct := second.Header().Get(echo.HeaderContentType); ct != first.Header().Get(echo.HeaderContentType) {
        t.Fatalf("unexpected content type %q", ct)
    }
}
