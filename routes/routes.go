package routes

import (
	"net/http"
	"time"

	"tutorly/handlers"
	"tutorly/middleware"
	"tutorly/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterAvailabilityRoutes registers the booking wizard's read endpoints and the provider's update.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/providers")
	{
		api.GET("/:id/availability", hb.Availability.GetAvailabilityHandler)
		api.GET("/:id/bookable-dates", hb.Availability.GetBookableDatesHandler)
		api.GET("/:id/bookable-times", hb.Availability.GetBookableTimesHandler)

		protected := api.Group("")
		protected.Use(middleware.JWTAuthMiddleware(utils.RoleProvider))
		protected.PUT("/me/availability", hb.Availability.UpdateMyAvailabilityHandler)
	}
}

// RegisterPaymentRoutes registers payment session endpoints for students.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/payments")
	{
		api.Use(middleware.JWTAuthMiddleware(utils.RoleStudent, utils.RoleAdmin))
		api.POST("/create-intent", hb.Payment.CreateIntentHandler)
		api.POST("/sessions", hb.Payment.OpenSessionHandler)
		api.GET("/sessions/:id", hb.Payment.GetSessionHandler)
		api.POST("/sessions/:id/confirm", hb.Payment.ConfirmSessionHandler)
		api.POST("/sessions/:id/cancel", hb.Payment.CancelSessionHandler)
		api.POST("/sessions/:id/retry", hb.Payment.RetrySessionHandler)
	}
}

// RegisterApprovalRoutes registers the provider/admin approval queue.
func RegisterApprovalRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/approvals")
	{
		api.Use(middleware.JWTAuthMiddleware(utils.RoleProvider, utils.RoleAdmin))
		api.GET("", hb.Approval.ListPendingHandler)
		api.POST("/:bookingId/approve", hb.Approval.ApproveHandler)
		api.POST("/:bookingId/reject", hb.Approval.RejectHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint backed by the health monitor.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		state := "ok"
		if !status.Healthy() {
			code = http.StatusServiceUnavailable
			state = "degraded"
		}
		c.JSON(code, gin.H{"status": state, "checks": status})
	})
}

// RegisterMetricsRoute exposes Prometheus metrics.
func RegisterMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, maxRequestsPerMin int) {
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:   []string{"Content-Length", "X-Request-ID"},
		MaxAge:          12 * time.Hour,
	}))
	r.Use(middleware.MetricsMiddleware())

	RegisterHealthRoute(r)
	RegisterMetricsRoute(r)

	r.Use(middleware.RateLimitMiddleware(maxRequestsPerMin))
	RegisterAvailabilityRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterApprovalRoutes(r, hb)
}
