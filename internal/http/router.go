package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mood-journal/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas del diario.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	userH *UserHandler,
	entryH *EntryHandler,
	trendH *TrendHandler,
	paymentH *PaymentHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	// Publicas.
	r.POST("/session", userH.StartSession)
	auth := r.Group("/auth")
	auth.POST("/refresh", userH.RefreshToken)
	auth.POST("/logout", userH.Logout)
	r.POST("/webhook/flutterwave", paymentH.Webhook)

	private := r.Group("")
	private.Use(JWTAuthMiddleware(jwtSvc))

	private.GET("/user/status", userH.Status)
	private.POST("/user/email", userH.LinkEmail)
	private.POST("/user/email/verify", userH.VerifyEmail)

	private.POST("/entries", entryH.Create)
	private.GET("/entries", entryH.List)
	private.GET("/entries/:id/similar", entryH.Similar)
	private.GET("/export.csv", entryH.Export)

	private.GET("/trend", trendH.Trend)
	private.GET("/trend.svg", trendH.SVG)
	private.GET("/trend.png", trendH.PNG)

	private.GET("/subscribe/txref", paymentH.TxRef)
	private.POST("/payment/verify", paymentH.Verify)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fija JSON por defecto; los handlers de imagen y CSV lo reemplazan.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
