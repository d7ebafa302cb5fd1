package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/ledgerly/ledgerly-backend/internal/middleware"
)

// Handlers bundles every API handler
type Handlers struct {
	Expense  *ExpenseHandler
	Income   *IncomeHandler
	Category *CategoryHandler
	Limit    *LimitHandler
	Savings  *SavingsHandler
	Report   *ReportHandler
	Backup   *BackupHandler
}

// RegisterRoutes sets up all API routes. authMiddleware and rateLimiter may
// be nil, in which case the routes are served without them.
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	// API version 1
	api := e.Group("/api/v1")
	if authMiddleware != nil {
		api.Use(authMiddleware.Authenticate())
	}
	// Limited after authentication so that clients are keyed by subject
	if rateLimiter != nil {
		api.Use(middleware.RateLimitMiddleware(rateLimiter))
	}

	// Expense routes
	expenses := api.Group("/expenses")
	expenses.POST("", h.Expense.CreateExpense)
	expenses.GET("", h.Expense.ListExpenses)
	expenses.GET("/search", h.Expense.SearchExpenses)
	expenses.GET("/:id", h.Expense.GetExpense)
	expenses.PUT("/:id", h.Expense.UpdateExpense)
	expenses.DELETE("/:id", h.Expense.DeleteExpense)
	expenses.POST("/:id/receipt", h.Expense.UploadReceipt)
	expenses.GET("/:id/receipt", h.Expense.GetReceipt)
	expenses.DELETE("/:id/receipt", h.Expense.DeleteReceipt)

	// Income routes
	incomes := api.Group("/incomes")
	incomes.POST("", h.Income.CreateIncome)
	incomes.GET("", h.Income.ListIncomes)
	incomes.GET("/search", h.Income.SearchIncomes)
	incomes.GET("/upcoming", h.Income.GetUpcomingIncomes)
	incomes.GET("/:id", h.Income.GetIncome)
	incomes.PUT("/:id", h.Income.UpdateIncome)
	incomes.DELETE("/:id", h.Income.DeleteIncome)

	// Category and income type routes
	api.GET("/categories", h.Category.ListCategories)
	api.POST("/categories", h.Category.CreateCategory)
	api.GET("/income-types", h.Category.ListIncomeTypes)
	api.POST("/income-types", h.Category.CreateIncomeType)

	// Spending limit routes
	limits := api.Group("/limits")
	limits.POST("", h.Limit.CreateLimit)
	limits.GET("", h.Limit.ListLimits)
	limits.GET("/exceeded", h.Limit.GetExceededLimits)
	limits.GET("/near", h.Limit.GetNearLimits)
	limits.GET("/category/:category", h.Limit.GetLimitByCategory)
	limits.GET("/category/:category/history", h.Limit.GetLimitHistory)
	limits.PUT("/:id", h.Limit.UpdateLimit)
	limits.DELETE("/:id", h.Limit.DeleteLimit)

	// Savings routes
	savings := api.Group("/savings")
	savings.POST("", h.Savings.CreateProject)
	savings.GET("", h.Savings.ListProjects)
	savings.DELETE("/transactions/:id", h.Savings.RemoveTransaction)
	savings.GET("/:id", h.Savings.GetProject)
	savings.PUT("/:id", h.Savings.UpdateProject)
	savings.DELETE("/:id", h.Savings.DeleteProject)
	savings.GET("/:id/progress", h.Savings.GetProgress)
	savings.POST("/:id/transactions", h.Savings.AddTransaction)
	savings.GET("/:id/transactions", h.Savings.ListTransactions)

	// Report routes
	reports := api.Group("/reports")
	reports.GET("/monthly/:year/:month", h.Report.GetMonthlyTotals)
	reports.GET("/compare/:year/:month", h.Report.GetMonthComparison)
	reports.GET("/categories", h.Report.GetCategoryBreakdown)
	reports.GET("/dashboard", h.Report.GetDashboard)

	// Backup routes
	backups := api.Group("/backups")
	backups.POST("", h.Backup.CreateBackup)
	backups.GET("", h.Backup.ListBackups)
	backups.GET("/export", h.Backup.ExportBackup)
	backups.POST("/restore", h.Backup.RestoreUpload)
	backups.POST("/:key/restore", h.Backup.RestoreStored)
}
