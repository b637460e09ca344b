package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"vint/models"
	"vint/pkg/apperr"
	"vint/pkg/session"
	"vint/pkg/users"
)

type tokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type userResponse struct {
	ID            uint            `json:"id"`
	Email         string          `json:"email"`
	Phone         *string         `json:"phone"`
	MonthlyBudget decimal.Decimal `json:"monthly_budget"`
	LedgerLinked  bool            `json:"ledger_linked"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		Phone:         u.Phone,
		MonthlyBudget: u.MonthlyBudget,
		LedgerLinked:  u.LedgerLinked(),
		CreatedAt:     u.CreatedAt,
	}
}

// issueTokens signs a session token and stores a fresh refresh token for the user.
func (a *App) issueTokens(ctx context.Context, userID uint) (tokenPair, error) {
	access, exp, err := a.sessions.Issue(userID)
	if err != nil {
		return tokenPair{}, err
	}
	raw, hash, err := session.NewRefreshToken()
	if err != nil {
		return tokenPair{}, apperr.Internal(err, "generate refresh token")
	}
	rt := models.RefreshToken{UserID: userID, TokenHash: hash, ExpiresAt: a.now().Add(a.cfg.RefreshTTL)}
	if err := a.db.WithContext(ctx).Create(&rt).Error; err != nil {
		return tokenPair{}, apperr.Internal(err, "store refresh token")
	}
	return tokenPair{AccessToken: access, RefreshToken: raw, TokenType: "Bearer", ExpiresAt: exp}, nil
}

func findRefreshToken(tx *gorm.DB, raw string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	err := tx.Where("token_hash = ?", session.HashRefreshToken(raw)).First(&rt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("refresh token not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load refresh token")
	}
	return &rt, nil
}

func (a *App) registerHandler(c *gin.Context) {
	var req struct {
		Email         string           `json:"email" binding:"required"`
		Phone         *string          `json:"phone"`
		MonthlyBudget *decimal.Decimal `json:"monthly_budget"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, apperr.Validation("%s", err.Error()))
		return
	}
	in := users.NewUser{Email: req.Email, Phone: req.Phone}
	if req.MonthlyBudget != nil {
		in.MonthlyBudget = *req.MonthlyBudget
	}
	user, err := users.Register(c.Request.Context(), a.db, in)
	if err != nil {
		a.respondError(c, err)
		return
	}
	a.log.WithField("user_id", user.ID).Info("user registered")
	c.JSON(http.StatusCreated, toUserResponse(user))
}

// googleLoginHandler signs a user in with a Google ID token, creating the user on first sign-in.
func (a *App) googleLoginHandler(c *gin.Context) {
	var req struct {
		IDToken string `json:"id_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, apperr.Validation("missing token"))
		return
	}
	ctx := c.Request.Context()
	email, err := a.auth.Verify(ctx, req.IDToken)
	if err != nil {
		a.respondError(c, err)
		return
	}
	user, created, err := users.FindOrCreate(ctx, a.db, email)
	if err != nil {
		a.respondError(c, err)
		return
	}
	if created {
		a.log.WithField("user_id", user.ID).Info("user created on first sign-in")
	}
	tokens, err := a.issueTokens(ctx, user.ID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user), "tokens": tokens})
}

// refreshHandler exchanges a refresh token for a new session token and rotates the refresh token.
func (a *App) refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, apperr.Validation("refresh_token is required"))
		return
	}
	ctx := c.Request.Context()

	var userID uint
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rt, err := findRefreshToken(tx, strings.TrimSpace(req.RefreshToken))
		if err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return err
		}
		if err != nil || rt.Revoked || a.now().After(rt.ExpiresAt) {
			return apperr.Auth("invalid or expired refresh token")
		}
		// only the request that flips revoked wins a concurrent rotation
		res := tx.Model(&models.RefreshToken{}).Where("id = ? AND revoked = ?", rt.ID, false).Update("revoked", true)
		if res.Error != nil {
			return apperr.Internal(res.Error, "revoke refresh token")
		}
		if res.RowsAffected == 0 {
			return apperr.Auth("invalid or expired refresh token")
		}
		userID = rt.UserID
		return nil
	})
	if err != nil {
		a.respondError(c, err)
		return
	}
	if _, err := users.ByID(ctx, a.db, userID); err != nil {
		a.respondError(c, apperr.Auth("user not found"))
		return
	}
	tokens, err := a.issueTokens(ctx, userID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// revokeRefreshHandler revokes a refresh token (logout).
func (a *App) revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, apperr.Validation("refresh_token is required"))
		return
	}
	db := a.db.WithContext(c.Request.Context())
	rt, err := findRefreshToken(db, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		a.respondError(c, err)
		return
	}
	if err := db.Model(rt).Update("revoked", true).Error; err != nil {
		a.respondError(c, apperr.Internal(err, "revoke refresh token"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}
