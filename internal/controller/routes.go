package controller

import (
	"github.com/gin-gonic/gin"
	"quiz-session-backend/internal/config"
	"quiz-session-backend/internal/service"
	"quiz-session-backend/utilities"
)

// Services bundles what the HTTP layer needs. Collector is nil unless the
// collector role is enabled.
type Services struct {
	Auth      service.AuthService
	Quiz      service.QuizService
	Report    service.ReportService
	Collector service.CollectorService
}

// ConfigureEngine applies engine-wide settings. Client addresses come from the
// peer unless it is one of the configured trusted proxies.
func ConfigureEngine(r *gin.Engine, cfg *config.APIConfig) error {
	var proxies []string
	if len(cfg.Context.TrustedProxies) > 0 {
		proxies = cfg.Context.TrustedProxies
	}
	return r.SetTrustedProxies(proxies)
}

// RegisterRoutes registers all route groups and their endpoints.
func RegisterRoutes(r *gin.Engine, cfg *config.APIConfig, svc Services) {
	authCtrl := NewAuthController(svc.Auth, cfg.Authentication.LoginRate, cfg.Authentication.LoginBurst)
	r.POST("/auth/login", authCtrl.Login)

	quizCtrl := NewQuizController(svc.Quiz, svc.Report)
	quiz := r.Group("/quiz", utilities.AuthMiddleware())
	{
		quiz.GET("/options", quizCtrl.Options)
	}

	sessions := r.Group("/sessions", utilities.AuthMiddleware())
	{
		sessions.POST("", quizCtrl.StartSession)
		sessions.GET("/:id/question", quizCtrl.CurrentQuestion)
		sessions.POST("/:id/answer", quizCtrl.SubmitAnswer)
		sessions.GET("/:id/summary", quizCtrl.Summary)
		sessions.GET("/:id/review.pdf", quizCtrl.ReviewPDF)
		sessions.POST("/:id/retry", quizCtrl.Retry)
		sessions.DELETE("/:id", quizCtrl.EndSession)
	}

	if svc.Collector != nil {
		collectorCtrl := NewCollectorController(svc.Collector)
		telemetry := r.Group("/telemetry")
		{
			// Sessions post here without a token, like any other fire-and-forget sink.
			telemetry.POST("/results", collectorCtrl.Record)
			telemetry.GET("/results", utilities.AuthMiddleware(), collectorCtrl.Recent)
			telemetry.GET("/results/:session_id", utilities.AuthMiddleware(), collectorCtrl.Get)
			telemetry.GET("/missed", utilities.AuthMiddleware(), collectorCtrl.MostMissed)
		}
	}
}
