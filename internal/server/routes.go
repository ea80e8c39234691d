package server

import (
	"github.com/labstack/echo/v4"

	"example.com/household-ledger/internal/handlers"
)

func registerRoutes(
	e *echo.Echo,
	authHandler *handlers.AuthHandler,
	adminHandler *handlers.AdminHandler,
	categoryHandler *handlers.CategoryHandler,
	expenseHandler *handlers.ExpenseHandler,
	recurringHandler *handlers.RecurringHandler,
	settlementHandler *handlers.SettlementHandler,
	notificationHandler *handlers.NotificationHandler,
	authMiddleware echo.MiddlewareFunc,
	adminMiddleware echo.MiddlewareFunc,
	authRateLimiter echo.MiddlewareFunc,
) {
	e.GET("/health", handlers.Health)

	api := e.Group("/api/v1")
	authGroup := api.Group("/auth", authRateLimiter)

	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/me", authHandler.Me, authMiddleware)
	authGroup.POST("/change-password", authHandler.ChangePassword, authMiddleware)

	admin := api.Group("/admin", authMiddleware, adminMiddleware)
	admin.GET("/users", adminHandler.ListUsers)
	admin.POST("/users/:userId/reset-password", adminHandler.ResetPassword)

	categories := api.Group("/categories", authMiddleware)
	categories.GET("", categoryHandler.List)
	categories.POST("", categoryHandler.Create, adminMiddleware)

	expenses := api.Group("/expenses", authMiddleware)
	expenses.GET("", expenseHandler.List)
	expenses.POST("", expenseHandler.Create)
	expenses.PUT("/:expenseId", expenseHandler.Update)
	expenses.POST("/:expenseId/approve", expenseHandler.Approve)
	expenses.POST("/:expenseId/reject", expenseHandler.Reject)
	expenses.DELETE("/:expenseId", expenseHandler.Delete)

	recurring := api.Group("/recurring", authMiddleware)
	recurring.GET("", recurringHandler.List)
	recurring.POST("", recurringHandler.Create)
	recurring.PUT("/:recurringId", recurringHandler.Update)
	recurring.POST("/materialize", recurringHandler.Materialize)
	recurring.POST("/:recurringId/approve", recurringHandler.Approve)
	recurring.POST("/:recurringId/reject", recurringHandler.Reject)
	recurring.DELETE("/:recurringId", recurringHandler.Deactivate)

	settlement := api.Group("/settlement", authMiddleware)
	settlement.GET("/summary", settlementHandler.Summary)
	settlement.GET("/payments", settlementHandler.ListPayments)
	settlement.POST("/payments", settlementHandler.CreatePayment)
	settlement.DELETE("/payments/:paymentId", settlementHandler.DeletePayment)

	notifications := api.Group("/notifications", authMiddleware)
	notifications.GET("/stream", notificationHandler.Stream)
}
