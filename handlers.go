package main

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"vint/pkg/apperr"
	"vint/pkg/ledger"
	"vint/pkg/store"
	"vint/pkg/users"
)

func (a *App) setupRoutes(r *gin.Engine) {
	r.Use(gin.Recovery(), requestID(), requestLogger(a.log))

	r.GET("/healthz", a.healthHandler)
	r.POST("/users", a.registerHandler)
	r.POST("/auth/google", a.googleLoginHandler)
	r.POST("/auth/refresh", a.refreshHandler)
	r.POST("/auth/revoke", a.revokeRefreshHandler)

	authGroup := r.Group("")
	authGroup.Use(a.sessionAuth())
	authGroup.GET("/me", a.meHandler)
	authGroup.PUT("/me/budget", a.budgetHandler)

	authGroup.POST("/transactions", a.createTransactionHandler)
	authGroup.GET("/transactions", a.listTransactionsHandler)
	authGroup.GET("/transactions/summary", a.summaryHandler)
	authGroup.GET("/transactions/:id", a.getTransactionHandler)
	authGroup.PUT("/transactions/:id", a.updateTransactionHandler)
	authGroup.DELETE("/transactions/:id", a.deleteTransactionHandler)

	plaid := authGroup.Group("/plaid")
	plaid.POST("/link_token", a.linkTokenHandler)
	plaid.POST("/set_access_token", a.setAccessTokenHandler)
	plaid.POST("/sync", a.syncHandler)
	plaid.GET("/transactions", a.listExternalHandler)
	plaid.POST("/transactions/restore_all", a.restoreAllHandler)
	plaid.POST("/transactions/:txn_id/hide", a.hideHandler)
	plaid.POST("/transactions/:txn_id/restore", a.restoreHandler)
	plaid.DELETE("/transactions/:txn_id", a.purgeHandler)
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func (a *App) healthHandler(c *gin.Context) {
	if err := store.Ping(a.db); err != nil {
		a.log.WithError(err).Warn("health check: database unreachable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *App) meHandler(c *gin.Context) {
	c.JSON(http.StatusOK, toUserResponse(currentUser(c)))
}

func (a *App) budgetHandler(c *gin.Context) {
	var req struct {
		MonthlyBudget *decimal.Decimal `json:"monthly_budget" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, apperr.Validation("monthly_budget is required"))
		return
	}
	user := currentUser(c)
	budget, err := users.SetMonthlyBudget(c.Request.Context(), a.db, user.ID, *req.MonthlyBudget)
	if err != nil {
		a.respondError(c, err)
		return
	}
	user.MonthlyBudget = budget
	c.JSON(http.StatusOK, toUserResponse(user))
}

type transactionRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
	Timestamp   *time.Time       `json:"timestamp"`
}

func (a *App) createTransactionHandler(c *gin.Context) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, apperr.Validation("%s", err.Error()))
		return
	}
	if req.Amount == nil {
		a.respondError(c, apperr.Validation("amount is required"))
		return
	}
	if req.Category == nil {
		a.respondError(c, apperr.Validation("category is required"))
		return
	}
	txn, err := a.ledger.CreateManual(c.Request.Context(), currentUser(c).ID, ledger.ManualInput{
		Amount:      *req.Amount,
		Category:    *req.Category,
		Description: req.Description,
		Timestamp:   req.Timestamp,
	})
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (a *App) listTransactionsHandler(c *gin.Context) {
	txns, err := a.ledger.ListManual(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

func transactionID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid transaction id")
	}
	return uint(id), nil
}

func (a *App) getTransactionHandler(c *gin.Context) {
	id, err := transactionID(c)
	if err != nil {
		a.respondError(c, err)
		return
	}
	txn, err := a.ledger.GetManual(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (a *App) updateTransactionHandler(c *gin.Context) {
	id, err := transactionID(c)
	if err != nil {
		a.respondError(c, err)
		return
	}
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, apperr.Validation("%s", err.Error()))
		return
	}
	txn, err := a.ledger.UpdateManual(c.Request.Context(), currentUser(c).ID, id, ledger.ManualPatch{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (a *App) deleteTransactionHandler(c *gin.Context) {
	id, err := transactionID(c)
	if err != nil {
		a.respondError(c, err)
		return
	}
	if err := a.ledger.DeleteManual(c.Request.Context(), currentUser(c).ID, id); err != nil {
		a.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// summaryHandler totals spending per category, over the last ?days=N days or,
// without days, since the first of the current month.
func (a *App) summaryHandler(c *gin.Context) {
	window := ledger.MonthToDate(a.now())
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 {
			a.respondError(c, apperr.Validation("days must be a positive integer"))
			return
		}
		window = ledger.SinceDays(a.now(), days)
	}
	totals, err := a.ledger.Summary(c.Request.Context(), currentUser(c).ID, window)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}
