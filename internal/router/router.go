package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focustimer/internal/handler"
	"focustimer/internal/middleware"
	"focustimer/internal/service"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	dataHandler *handler.DataHandler,
	billingHandler *handler.BillingHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	data := api.Group("/data")
	data.Use(middleware.Auth(authService))
	data.GET("/sessions", dataHandler.GetSessions)
	data.PUT("/sessions", dataHandler.PutSessions)
	data.GET("/settings", dataHandler.GetSettings)
	data.PUT("/settings", dataHandler.PutSettings)
	data.GET("/watch", dataHandler.Watch)
	data.DELETE("", dataHandler.Clear)

	billing := api.Group("/billing")
	billing.POST("/webhook", billingHandler.Webhook)
	authed := billing.Group("")
	authed.Use(middleware.Auth(authService))
	authed.POST("/checkout", billingHandler.Checkout)
	authed.GET("/portal", billingHandler.Portal)

	return engine
}
