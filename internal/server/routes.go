package server

import (
	"github.com/labstack/echo/v4"

	"example.com/ai-finance-coach/backend/internal/handlers"
)

type routes struct {
	status        *handlers.StatusHandler
	analysis      *handlers.AnalysisHandler
	auth          *handlers.AuthHandler
	notifications *handlers.NotificationHandler

	requireAuth     echo.MiddlewareFunc
	analysisAuth    echo.MiddlewareFunc
	authRateLimit   echo.MiddlewareFunc
	analysisLimiter echo.MiddlewareFunc
}

func registerRoutes(e *echo.Echo, r routes) {
	e.GET("/", r.status.Root)
	e.GET("/health", r.status.Health)
	e.GET("/service-status", r.status.ServiceStatus)
	e.POST("/chat", r.status.Chat, r.analysisLimiter)

	authGroup := e.Group("/auth", r.authRateLimit)
	authGroup.POST("/register", r.auth.Register)
	authGroup.POST("/login", r.auth.Login)
	authGroup.POST("/logout", r.auth.Logout)
	authGroup.GET("/me", r.auth.Me, r.requireAuth)
	authGroup.GET("/profile", r.auth.Me, r.requireAuth)

	analysis := e.Group("", r.analysisAuth)
	analysis.POST("/analyze", r.analysis.Analyze, r.analysisLimiter)
	analysis.POST("/analyze-ai", r.analysis.AnalyzeAI, r.analysisLimiter)
	analysis.POST("/analyze-basic", r.analysis.AnalyzeBasic)
	analysis.POST("/upload-csv", r.analysis.UploadCSV, r.analysisLimiter)
	analysis.POST("/export-csv", r.analysis.ExportCSV)
	analysis.POST("/export", r.analysis.ExportReport)

	notifications := e.Group("/notifications", r.requireAuth)
	notifications.GET("/stream", r.notifications.Stream)
}
