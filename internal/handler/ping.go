package handler

import (
	"context"
	"net/http"

	"post-management/internal/api"
	"post-management/internal/apperror"
	"post-management/internal/database"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Pinger 可選的 Redis 連線，ratelimit.Client 直接滿足
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// RootHandler 位於 /api 之外，不列入 swagger
func RootHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, api.MessageResponse{Message: "Post Management API is running"})
	}
}

// PingHandler 健康檢查
// @Summary     Health Check
// @Description 回傳 pong，並檢查資料庫與 Redis (若有設定) 連線是否正常
// @Tags        health
// @Produce     json
// @Success     200 {object} api.MessageResponse
// @Failure     500 {object} apperror.ErrorResponse
// @Router      /ping [get]
func PingHandler(db database.DB, rdb Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := db.Ping(ctx); err != nil {
			c.Logger().Errorf("ping database: %v", err)
			return c.JSON(http.StatusInternalServerError, apperror.ErrorResponse{Error: "database unhealthy"})
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				c.Logger().Errorf("ping redis: %v", err)
				return c.JSON(http.StatusInternalServerError, apperror.ErrorResponse{Error: "cache unhealthy"})
			}
		}
		return c.JSON(http.StatusOK, api.MessageResponse{Message: "pong"})
	}
}
