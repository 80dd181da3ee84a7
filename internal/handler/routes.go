package handler

import (
	"github.com/dafibh/lunas/lunas-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, loanHandler *LoanHandler, paymentHandler *LoanPaymentHandler, wsHandler *WebSocketHandler, openAPIHandler *OpenAPIHandler) {
	// API docs (public)
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", openAPIHandler.ServeDocument)

	// WebSocket authenticates with the token query parameter
	e.GET("/ws", wsHandler.HandleWS)

	// API version 1
	api := e.Group("/api/v1")

	// Loan routes (protected)
	loans := api.Group("/loans")
	loans.Use(authMiddleware.Authenticate())
	loans.POST("", loanHandler.CreateLoan)
	loans.GET("", loanHandler.ListLoans)
	loans.POST("/schedule-preview", loanHandler.PreviewSchedule)
	loans.GET("/:loanId", loanHandler.GetLoan)
	loans.GET("/:loanId/reconciliation", loanHandler.GetReconciliation)
	loans.GET("/:loanId/proofs/url", paymentHandler.GetProofURL)

	// Payment submission is rate limited per owner
	loans.POST("/:loanId/payments", paymentHandler.SubmitPayment, middleware.RateLimitMiddleware(rateLimiter))
}
