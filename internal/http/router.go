package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/deepedumate/loan-aggregator-sub000/internal/http/handlers"
	httpMW "github.com/deepedumate/loan-aggregator-sub000/internal/http/middleware"
)

type RouterConfig struct {
	ConversationHandler *httpH.ConversationHandler
	RealtimeHandler     *httpH.RealtimeHandler
	HealthHandler       *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.ConversationHandler != nil {
			api.POST("/conversations", cfg.ConversationHandler.Start)
			api.GET("/conversations/:id", cfg.ConversationHandler.Get)
			api.POST("/conversations/:id/answer", cfg.ConversationHandler.Answer)
			api.POST("/conversations/:id/edit", cfg.ConversationHandler.Edit)
			api.POST("/conversations/:id/reset", cfg.ConversationHandler.Reset)

			api.POST("/conversations/:id/typeahead", cfg.ConversationHandler.Typeahead)
			api.GET("/conversations/:id/suggestions", cfg.ConversationHandler.Suggestions)

			api.POST("/conversations/:id/otp/send", cfg.ConversationHandler.SendOTP)
			api.POST("/conversations/:id/otp/resend", cfg.ConversationHandler.ResendOTP)
			api.POST("/conversations/:id/otp/verify", cfg.ConversationHandler.VerifyOTP)

			api.PUT("/conversations/:id/display-currency", cfg.ConversationHandler.SetDisplayCurrency)
			api.GET("/conversations/:id/display-currency", cfg.ConversationHandler.CostBreakdown)
			api.GET("/conversations/:id/loans", cfg.ConversationHandler.EligibleLoans)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			api.GET("/conversations/:id/stream", cfg.RealtimeHandler.Stream)
		}
	}

	return r
}
