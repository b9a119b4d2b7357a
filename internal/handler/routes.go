package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/vikoba/vikoba-backend/internal/middleware"
)

// Handlers bundles everything RegisterRoutes needs
type Handlers struct {
	Auth         *AuthHandler
	Group        *GroupHandler
	Member       *MemberHandler
	Payment      *PaymentHandler
	Loan         *LoanHandler
	Dashboard    *DashboardHandler
	Notification *NotificationHandler
	WebSocket    *WebSocketHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	// API version 1
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Auth routes
	api.POST("/auth/callback", h.Auth.Callback)
	api.GET("/auth/me", h.Auth.Me)
	api.PUT("/profile", h.Auth.UpdateProfile)

	// Notification routes
	api.GET("/notifications", h.Notification.List)
	api.POST("/notifications/:id/read", h.Notification.MarkRead)
	api.POST("/notifications/read-all", h.Notification.MarkAllRead)

	// Group routes
	groups := api.Group("/groups")
	groups.POST("", h.Group.CreateGroup)
	groups.GET("", h.Group.ListGroups)
	groups.GET("/:groupId", h.Group.GetGroup)
	groups.PUT("/:groupId", h.Group.UpdateGroup)
	groups.DELETE("/:groupId", h.Group.DeleteGroup)

	// Membership routes
	groups.POST("/:groupId/members", h.Member.AddMember)
	groups.GET("/:groupId/members", h.Member.ListMembers)
	groups.GET("/:groupId/members/:memberId", h.Member.GetMember)
	groups.PATCH("/:groupId/members/:memberId/role", h.Member.ChangeRole)
	groups.DELETE("/:groupId/members/:memberId", h.Member.DeactivateMember)

	// Payment routes
	groups.POST("/:groupId/payments/generate", h.Payment.GeneratePeriod)
	groups.GET("/:groupId/payments", h.Payment.ListPayments)
	groups.GET("/:groupId/payments/pending", h.Payment.ListPending)
	groups.GET("/:groupId/payments/:paymentId", h.Payment.GetPayment)
	groups.POST("/:groupId/payments/:paymentId/submit", h.Payment.SubmitPayment)
	groups.POST("/:groupId/payments/:paymentId/approve", h.Payment.ApprovePayment)
	groups.POST("/:groupId/payments/:paymentId/reject", h.Payment.RejectPayment)
	groups.GET("/:groupId/payments/:paymentId/proof-url", h.Payment.ProofURL)
	groups.GET("/:groupId/members/:memberId/payments", h.Payment.ListMemberPayments)

	// Loan routes
	groups.POST("/:groupId/loans", h.Loan.RequestLoan)
	groups.POST("/:groupId/loans/preview", h.Loan.PreviewSchedule)
	groups.GET("/:groupId/loans", h.Loan.ListLoans)
	groups.GET("/:groupId/loans/:loanId", h.Loan.GetLoan)
	groups.POST("/:groupId/loans/:loanId/approve", h.Loan.ApproveLoan)
	groups.POST("/:groupId/loans/:loanId/reject", h.Loan.RejectLoan)
	groups.GET("/:groupId/members/:memberId/loans", h.Loan.ListMemberLoans)

	// Dashboard routes
	groups.GET("/:groupId/dashboard", h.Dashboard.GroupSummary)
	groups.GET("/:groupId/dashboard/:year/:month", h.Dashboard.PeriodSummary)
	groups.GET("/:groupId/arrears", h.Dashboard.ArrearsReport)
	groups.GET("/:groupId/members/:memberId/summary", h.Dashboard.MemberSummary)

	// WebSocket endpoint authenticates via query token, outside the JWT middleware
	e.GET("/ws", h.WebSocket.Connect)
}
