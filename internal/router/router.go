package router

import (
	"time"

	"post-management/internal/asset"
	"post-management/internal/database"
	"post-management/internal/handler"
	"post-management/internal/handler/posts"
	"post-management/internal/handler/uploads"
	"post-management/internal/handler/users"
	"post-management/internal/middleware"
	"post-management/internal/ratelimit"
	"post-management/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Deps 路由需要的外部資源；Redis 為 nil 時限流改用行程內計數
type Deps struct {
	DB             database.DB
	Redis          ratelimit.Client
	Tokens         *service.TokenManager
	Assets         *asset.Service
	AuthRateLimit  int
	AuthRateWindow time.Duration
	Logger         logrus.FieldLogger
}

// Setup 註冊所有路由與中介層
func Setup(e *echo.Echo, d Deps) {
	auth := middleware.RequireAuth(d.Tokens)
	limit := ratelimit.New(d.Redis, d.AuthRateLimit, d.AuthRateWindow, d.Logger)

	var rdb handler.Pinger
	if d.Redis != nil {
		rdb = d.Redis
	}

	e.GET("/", handler.RootHandler())
	e.GET("/uploads/:filename", uploads.ServeHandler(d.Assets))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	api.GET("/ping", handler.PingHandler(d.DB, rdb))

	// 註冊與登入不需 token，但有頻率限制
	apiUsers := api.Group("/users")
	apiUsers.POST("", users.RegisterHandler(d.DB, d.Assets), limit)
	apiUsers.POST("/login", users.LoginHandler(d.DB, d.Tokens), limit)
	apiUsers.GET("/:id", users.GetUserHandler(d.DB))
	apiUsers.PUT("/:id", auth(users.UpdateUserHandler(d.DB, d.Assets)))

	apiPosts := api.Group("/posts")
	apiPosts.GET("", posts.ListPostsHandler(d.DB))
	apiPosts.GET("/:id", posts.GetPostHandler(d.DB))
	apiPosts.POST("", auth(posts.CreatePostHandler(d.DB, d.Assets)))
	apiPosts.PUT("/:id", auth(posts.UpdatePostHandler(d.DB, d.Assets)))
	apiPosts.DELETE("/:id", auth(posts.DeletePostHandler(d.DB)))
}
