package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"vint/pkg/apperr"
	"vint/pkg/ledger"
)

const queryDateLayout = "2006-01-02"

func (a *App) linkTokenHandler(c *gin.Context) {
	token, err := a.ledger.LinkToken(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link_token": token})
}

func (a *App) setAccessTokenHandler(c *gin.Context) {
	var req struct {
		PublicToken string `json:"public_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, apperr.Validation("public_token is required"))
		return
	}
	if err := a.ledger.Link(c.Request.Context(), currentUser(c).ID, req.PublicToken); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ledger account linked"})
}

// syncWindow reads ?start= and ?end= (YYYY-MM-DD). End defaults to today and
// start to SYNC_WINDOW_DAYS before end.
func (a *App) syncWindow(c *gin.Context) (time.Time, time.Time, error) {
	now := a.now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if raw := c.Query("end"); raw != "" {
		t, err := time.Parse(queryDateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, apperr.Validation("end must be a date (YYYY-MM-DD)")
		}
		end = t
	}
	start := end.AddDate(0, 0, -a.cfg.SyncWindowDays)
	if raw := c.Query("start"); raw != "" {
		t, err := time.Parse(queryDateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, apperr.Validation("start must be a date (YYYY-MM-DD)")
		}
		start = t
	}
	return start, end, nil
}

func (a *App) syncHandler(c *gin.Context) {
	start, end, err := a.syncWindow(c)
	if err != nil {
		a.respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	user := currentUser(c)
	res, err := a.ledger.Sync(ctx, user, start, end)
	if err != nil {
		a.respondError(c, err)
		return
	}
	view, err := a.ledger.ExternalView(ctx, user.ID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sync": res, "transactions": view})
}

// listExternalHandler lists mirrored transactions, hidden ones included unless
// ?include_hidden=false.
func (a *App) listExternalHandler(c *gin.Context) {
	includeHidden := true
	if raw := c.Query("include_hidden"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			a.respondError(c, apperr.Validation("include_hidden must be a boolean"))
			return
		}
		includeHidden = v
	}
	ctx := c.Request.Context()
	userID := currentUser(c).ID
	var (
		view []ledger.ExternalItem
		err  error
	)
	if includeHidden {
		view, err = a.ledger.ExternalView(ctx, userID)
	} else {
		view, err = a.ledger.VisibleView(ctx, userID)
	}
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (a *App) hideHandler(c *gin.Context) {
	view, err := a.ledger.Hide(c.Request.Context(), currentUser(c).ID, c.Param("txn_id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (a *App) restoreHandler(c *gin.Context) {
	view, err := a.ledger.Restore(c.Request.Context(), currentUser(c).ID, c.Param("txn_id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (a *App) restoreAllHandler(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUser(c).ID
	n, err := a.ledger.RestoreAll(ctx, userID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	view, err := a.ledger.ExternalView(ctx, userID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": n, "transactions": view})
}

func (a *App) purgeHandler(c *gin.Context) {
	view, err := a.ledger.Purge(c.Request.Context(), currentUser(c).ID, c.Param("txn_id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
