package router

import (
	"github.com/kinoshop-next/internal/cache"
	"github.com/kinoshop-next/internal/config"
	publichandlers "github.com/kinoshop-next/internal/http/handlers/public"
	handlershared "github.com/kinoshop-next/internal/http/handlers/shared"
	"github.com/kinoshop-next/internal/http/response"
	"github.com/kinoshop-next/internal/logger"
	"github.com/kinoshop-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	h := publichandlers.New(c)
	loginRule := RateLimitRule{
		Prefix:        cache.BuildKey("rate:login"),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.login_too_many",
	}
	quantityDebounce := NewDebouncer(cfg.Cart.Debounce())

	// 中间件
	r.Use(RecoveryMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/products", h.GetProducts)
			public.GET("/products/:id/metadata", h.GetProductMetadata)
			public.GET("/promo-codes/:code", h.CheckPromoCode)
		}

		// 认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", h.UserRegister)
			auth.POST("/login", RateLimitMiddleware(cache.Client(), loginRule, KeyByIPAndJSONField("username")), h.UserLogin)
			auth.POST("/logout", h.UserLogout)
			auth.GET("/me", h.UserMe)
		}

		// 购物车接口（作用于当前身份）
		cart := apiV1.Group("/cart")
		{
			cart.GET("", h.GetCart)
			cart.POST("/reload", h.ReloadCart)
			cart.POST("/items", h.AddCartItem)
			cart.PATCH("/items/:id", DebounceMiddleware(quantityDebounce, KeyByCartItemDirection), h.UpdateCartItem)
			cart.DELETE("/items/:id", h.DeleteCartItem)
			cart.DELETE("", h.ClearCart)
			cart.POST("/promo", h.ApplyCartPromo)
			cart.DELETE("/promo", h.ClearCartPromo)
		}

		apiV1.GET("/health", h.Health)
	}

	// 健康检查
	r.GET("/health", h.Health)

	r.NoRoute(func(c *gin.Context) {
		handlershared.RespondError(c, response.CodeNotFound, "error.not_found", nil)
	})

	logger.Debugw("router_ready", "routes", len(r.Routes()))
	return r
}
