// Package ratelimit 依用戶端 IP 限制登入與註冊的請求頻率
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"post-management/internal/apperror"

	"github.com/go-chi/httprate"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const exceededMessage = "rate limit exceeded"

// New 有 Redis 時使用共享計數，否則退回行程內的 httprate
func New(client Client, limit int, window time.Duration, logger logrus.FieldLogger) echo.MiddlewareFunc {
	if limit <= 0 || window <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if client == nil {
		return InMemory(limit, window)
	}
	return Middleware(NewRedisCounter(client), limit, window, logger)
}

// Middleware 以 Counter 計數；計數失敗時放行並記錄警告
func Middleware(counter Counter, limit int, window time.Duration, logger logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodOptions {
				return next(c)
			}
			key := "rl:" + c.Path() + ":ip:" + c.RealIP()
			count, ttl, err := counter.Incr(c.Request().Context(), key, window)
			if err != nil {
				logger.WithError(err).WithField("key", key).Warn("rate limit check failed")
				return next(c)
			}

			reset := int(math.Ceil(ttl.Seconds()))
			remaining := limit - int(count)
			if remaining < 0 {
				remaining = 0
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.Itoa(reset))

			if int(count) > limit {
				h.Set("Retry-After", strconv.Itoa(reset))
				return apperror.New(apperror.TooManyRequests, exceededMessage)
			}
			return next(c)
		}
	}
}

// InMemory 單一實例使用的限流，以 IP 與路徑為 key
func InMemory(limit int, window time.Duration) echo.MiddlewareFunc {
	return echo.WrapMiddleware(httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"` + exceededMessage + `"}`))
		}),
	))
}
