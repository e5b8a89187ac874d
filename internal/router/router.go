package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-basket/config"
	"github.com/ikkim/udonggeum-basket/internal/app/controller"
	"github.com/ikkim/udonggeum-basket/internal/middleware"
)

type Router struct {
	basketController    *controller.BasketController
	gateController      *controller.GateController
	sessionController   *controller.SessionController
	websocketController *controller.WebSocketController
	sessionMiddleware   *middleware.SessionMiddleware
	config              *config.Config
}

func NewRouter(
	basketController *controller.BasketController,
	gateController *controller.GateController,
	sessionController *controller.SessionController,
	websocketController *controller.WebSocketController,
	sessionMiddleware *middleware.SessionMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		basketController:    basketController,
		gateController:      gateController,
		sessionController:   sessionController,
		websocketController: websocketController,
		sessionMiddleware:   sessionMiddleware,
		config:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "basket bridge is running",
		})
	})

	router.GET("/ws", r.sessionMiddleware.Authenticate(), r.websocketController.Connect)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/session", r.sessionController.CreateSession)

		basket := v1.Group("/basket")
		basket.Use(r.sessionMiddleware.Authenticate())
		{
			basket.GET("", r.basketController.GetBasket)
			basket.POST("/items", r.basketController.AddItem)
			basket.PUT("/items/:id", r.basketController.UpdateQuantity)
			basket.DELETE("/items/:id", r.basketController.RemoveItem)
			basket.POST("/coupon", r.basketController.AddCoupon)
			basket.DELETE("/coupon", r.basketController.RemoveCoupon)
		}

		gates := v1.Group("/gates")
		gates.Use(r.sessionMiddleware.Authenticate())
		{
			gates.POST("/:id/confirm", r.gateController.Confirm)
			gates.POST("/:id/dismiss", r.gateController.Dismiss)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Authorization, X-Request-ID, accept, origin, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
