package main

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vint/models"
	"vint/pkg/apperr"
	"vint/pkg/users"
)

const (
	requestIDHeader = "X-Request-ID"
	ctxRequestID    = "request_id"
	ctxUser         = "user"
)

// requestID reuses the caller's X-Request-ID or generates one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger logs one line per request, leveled by status code.
func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		userID := "anonymous"
		if u, ok := c.Get(ctxUser); ok {
			userID = uintString(u.(*models.User).ID)
		}
		status := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"status":     status,
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
			"method":     c.Request.Method,
			"path":       path,
			"user_id":    userID,
			"request_id": c.GetString(ctxRequestID),
		})
		switch {
		case status >= 500:
			entry.Error("server error")
		case status >= 400:
			entry.Warn("client error")
		default:
			entry.Info("request processed")
		}
	}
}

// sessionAuth requires a valid bearer session token and loads its user.
func (a *App) sessionAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			a.abort(c, apperr.Auth("missing or invalid Authorization header"))
			return
		}
		userID, err := a.sessions.Validate(strings.TrimSpace(token))
		if err != nil {
			a.abort(c, err)
			return
		}
		user, err := users.ByID(c.Request.Context(), a.db, userID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				err = apperr.Auth("user not found")
			}
			a.abort(c, err)
			return
		}
		c.Set(ctxUser, user)
		c.Next()
	}
}

// currentUser is set by sessionAuth on every authenticated route.
func currentUser(c *gin.Context) *models.User {
	return c.MustGet(ctxUser).(*models.User)
}

// respondError writes err as {"error", "kind"} with the status its kind maps to.
// Internal errors are logged and answered generically.
func (a *App) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		a.log.WithError(err).WithField("request_id", c.GetString(ctxRequestID)).Error("request failed")
	}
	c.JSON(apperr.HTTPStatus(kind), gin.H{"error": apperr.PublicMessage(err), "kind": kind})
}

func (a *App) abort(c *gin.Context, err error) {
	a.respondError(c, err)
	c.Abort()
}
